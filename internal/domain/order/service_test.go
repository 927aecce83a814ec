package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/promo"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	created   []*Order
	byUser    map[string][]Order
	listCalls int
	createErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byUser: make(map[string][]Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, o)
	m.byUser[o.UserID] = append([]Order{*o}, m.byUser[o.UserID]...)
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	m.listCalls++
	return m.byUser[userID], nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) { return nil, nil }

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	for _, o := range m.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	for _, o := range m.created {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return ErrNotFound
}

type mockPromoRepo struct {
	rules map[string]*promo.Rule
}

func (m *mockPromoRepo) FindByCode(_ context.Context, code string) (*promo.Rule, error) {
	if r, ok := m.rules[code]; ok {
		return r, nil
	}
	return nil, promo.ErrInvalidCode
}

type mockPublisher struct {
	events []Placed
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, p Placed) error {
	m.events = append(m.events, p)
	return m.err
}

// --- Helpers ---

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.AddItem(cart.Item{ProductID: "p1", Name: "Tee", Price: dec("19.99")}, 2))
	require.NoError(t, c.AddItem(cart.Item{ProductID: "p2", Name: "Mug", Price: dec("5.00")}, 1))
	return c
}

func newTestService(orders Repository, promos promo.Repository, pub Publisher) *Service {
	if promos == nil {
		promos = &mockPromoRepo{}
	}
	return NewService(orders, promos, pub, dec("0.08"))
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(newMockOrderRepo(), nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Cart: cart.New()})
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_PricesCartWithTax(t *testing.T) {
	repo := newMockOrderRepo()
	svc := newTestService(repo, nil, nil)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:     "u1",
		Cart:       newTestCart(t),
		PaymentRef: "pay_123",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, dec("44.98").Equal(o.Subtotal), "subtotal %s", o.Subtotal)
	assert.True(t, dec("3.60").Equal(o.Tax), "tax %s", o.Tax)
	assert.True(t, o.Shipping.IsZero())
	assert.True(t, dec("48.58").Equal(o.Total), "total %s", o.Total)
	assert.Equal(t, "pay_123", o.PaymentRef)
	require.Len(t, repo.created, 1)
	assert.Len(t, o.Items, 2)
}

func TestCheckout_AppliesPromo(t *testing.T) {
	promos := &mockPromoRepo{rules: map[string]*promo.Rule{
		"TENOFF": {Code: "TENOFF", Kind: promo.KindPercentage, Value: dec("10"), Active: true},
	}}
	svc := newTestService(newMockOrderRepo(), promos, nil)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:    "u1",
		Cart:      newTestCart(t),
		PromoCode: "TENOFF",
	})

	require.NoError(t, err)
	// 44.98 - 4.498 = 40.482 taxable; tax 3.23856; total 43.72.
	assert.True(t, dec("4.50").Equal(o.Discount), "discount %s", o.Discount)
	assert.True(t, dec("3.24").Equal(o.Tax), "tax %s", o.Tax)
	assert.True(t, dec("43.72").Equal(o.Total), "total %s", o.Total)
}

func TestCheckout_InvalidPromo(t *testing.T) {
	repo := newMockOrderRepo()
	svc := newTestService(repo, &mockPromoRepo{}, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:    "u1",
		Cart:      newTestCart(t),
		PromoCode: "BOGUS",
	})

	require.ErrorIs(t, err, promo.ErrInvalidCode)
	assert.Empty(t, repo.created)
}

func TestCheckout_PublishesEvent(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestService(newMockOrderRepo(), nil, pub)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Cart: newTestCart(t)})

	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, o.ID, pub.events[0].OrderID)
	assert.True(t, o.Total.Equal(pub.events[0].Total))
}

func TestCheckout_PublishFailureDoesNotFailOrder(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := newTestService(newMockOrderRepo(), nil, pub)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Cart: newTestCart(t)})
	require.NoError(t, err)
}

func TestCheckout_CreateError(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErr = errors.New("db write failed")
	svc := newTestService(repo, nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Cart: newTestCart(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestSetStatus_EnforcesTransitions(t *testing.T) {
	repo := newMockOrderRepo()
	svc := newTestService(repo, nil, nil)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Cart: newTestCart(t)})
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), o.ID, StatusPaid))
	require.NoError(t, svc.SetStatus(context.Background(), o.ID, StatusShipped))

	err = svc.SetStatus(context.Background(), o.ID, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = svc.SetStatus(context.Background(), "missing", StatusPaid)
	assert.ErrorIs(t, err, ErrNotFound)
}
