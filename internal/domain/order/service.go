package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/promo"
)

// Placed describes a completed checkout, for event publication.
type Placed struct {
	OrderID string
	UserID  string
	Total   decimal.Decimal
	Items   []Line
	At      time.Time
}

// Publisher emits order-placed notifications. Publication is best-effort;
// the order is already persisted when Publish is called.
type Publisher interface {
	Publish(ctx context.Context, p Placed) error
}

// CheckoutRequest holds the input for placing an order from a cart.
type CheckoutRequest struct {
	UserID     string
	Cart       *cart.Cart
	PromoCode  string
	PaymentRef string
}

// Service implements checkout and order reads.
type Service struct {
	orders  Repository
	promos  promo.Repository
	pub     Publisher
	cache   *Cache
	taxRate decimal.Decimal
	now     func() time.Time
}

// NewService creates an order Service. pub may be nil when event publication
// is disabled.
func NewService(orders Repository, promos promo.Repository, pub Publisher, taxRate decimal.Decimal) *Service {
	return &Service{
		orders:  orders,
		promos:  promos,
		pub:     pub,
		cache:   NewCache(orders),
		taxRate: taxRate,
		now:     time.Now,
	}
}

// Checkout prices the cart, persists the resulting order, and invalidates
// the user's cached order list. The caller clears the cart only after
// Checkout returns successfully; nothing is mutated on failure.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if req.Cart == nil || req.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	discount := decimal.Zero
	if req.PromoCode != "" {
		rule, err := s.promos.FindByCode(ctx, req.PromoCode)
		if err != nil {
			if errors.Is(err, promo.ErrInvalidCode) {
				return nil, promo.ErrInvalidCode
			}
			return nil, errors.Wrap(err, "lookup promo")
		}
		discount, err = promo.Apply(rule, req.Cart.Subtotal())
		if err != nil {
			return nil, err
		}
	}

	totals := req.Cart.ComputeTotals(s.taxRate, discount)

	items := req.Cart.Items()
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		}
	}

	o := &Order{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Status:     StatusPending,
		Items:      lines,
		Subtotal:   totals.Subtotal,
		Tax:        totals.Tax,
		Shipping:   totals.Shipping,
		Discount:   totals.Discount,
		Total:      totals.Total,
		PromoCode:  req.PromoCode,
		PaymentRef: req.PaymentRef,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.cache.Invalidate(req.UserID)

	if s.pub != nil {
		// Best-effort: the order is durable, a lost event is not fatal.
		_ = s.pub.Publish(ctx, Placed{
			OrderID: o.ID,
			UserID:  o.UserID,
			Total:   o.Total,
			Items:   o.Items,
			At:      o.CreatedAt,
		})
	}

	return o, nil
}

// Orders returns the user's orders, most recent first, through the
// read-through cache.
func (s *Service) Orders(ctx context.Context, userID string) ([]Order, error) {
	return s.cache.Get(ctx, userID)
}

// Invalidate drops the user's cached order list.
func (s *Service) Invalidate(userID string) {
	s.cache.Invalidate(userID)
}

// AllOrders returns every order for the admin panel, bypassing the per-user
// cache.
func (s *Service) AllOrders(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// SetStatus applies an admin status change, enforcing the lifecycle
// transitions, and invalidates the owner's cache.
func (s *Service) SetStatus(ctx context.Context, orderID string, next Status) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, next) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, next)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return errors.Wrap(err, "update status")
	}
	s.cache.Invalidate(o.UserID)
	return nil
}
