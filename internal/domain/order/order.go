package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/domain/cart"
)

// Status is an order's lifecycle state. The backend is the sole writer of
// order state; everything else only reads snapshots.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// validTransitions encodes the allowed status changes.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

// CanTransition reports whether moving from to next is allowed.
func CanTransition(from, next Status) bool {
	for _, s := range validTransitions[from] {
		if s == next {
			return true
		}
	}
	return false
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", errors.Errorf("unknown order status: %q", s)
	}
}

// Sentinel errors for order operations.
var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Line is one ordered product/variant snapshot. Prices are copied from the
// cart at checkout time so later catalog edits never change past orders.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   cart.Variant    `json:"variant,omitempty"`
}

// Order is a placed order with its full pricing breakdown.
type Order struct {
	ID         string
	UserID     string
	Status     Status
	Items      []Line
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	PromoCode  string
	PaymentRef string
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
