package httpapi

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/domain/auth"
	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/order"
	"github.com/northwind-labs/storefront/internal/domain/product"
	"github.com/northwind-labs/storefront/internal/domain/promo"
	"github.com/northwind-labs/storefront/internal/domain/wishlist"
	"github.com/northwind-labs/storefront/internal/repository"
	"github.com/northwind-labs/storefront/internal/session"
)

// In-memory fakes backing the handler tests. They mirror the persistence
// contracts exactly, including the sentinel errors the SQL layer maps to.

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories []category.Category
}

func (f *fakeCategoryRepo) List(context.Context) ([]category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]category.Category(nil), f.categories...), nil
}

func (f *fakeCategoryRepo) GetBySlug(_ context.Context, slug string) (*category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, category.ErrNotFound
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, category.ErrNotFound
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *category.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, *c)
	return nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, c *category.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == c.ID {
			f.categories[i] = *c
			return nil
		}
	}
	return category.ErrNotFound
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return category.ErrNotFound
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products []product.Product
}

func (f *fakeProductRepo) List(_ context.Context, flt product.Filter) ([]product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []product.Product
	for _, p := range f.products {
		if flt.CategoryID != "" && p.CategoryID != flt.CategoryID {
			continue
		}
		if flt.Gender != "" && p.Gender != flt.Gender {
			continue
		}
		if flt.MaxPrice.IsPositive() && p.Price.GreaterThan(flt.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (f *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == p.ID {
			f.products[i] = *p
			return nil
		}
	}
	return product.ErrNotFound
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return product.ErrNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []auth.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUserRepo) List(context.Context) ([]auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]auth.User(nil), f.users...), nil
}

func (f *fakeUserRepo) promote(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].Email == email {
			f.users[i].IsAdmin = true
		}
	}
}

type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   []order.Order
	onCreate func() // runs before the order is stored, outside f.mu
}

func (f *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) List(context.Context) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]order.Order(nil), f.orders...), nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status order.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			return nil
		}
	}
	return order.ErrNotFound
}

type fakePromoRepo struct {
	rules map[string]*promo.Rule
}

func (f *fakePromoRepo) FindByCode(_ context.Context, code string) (*promo.Rule, error) {
	if r, ok := f.rules[code]; ok {
		return r, nil
	}
	return nil, promo.ErrInvalidCode
}

type fakeCartStore struct {
	mu    sync.Mutex
	items map[string][]cart.Item
}

func (f *fakeCartStore) Load(_ context.Context, userID string) ([]cart.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cart.Item(nil), f.items[userID]...), nil
}

func (f *fakeCartStore) Save(_ context.Context, userID string, items []cart.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[userID] = append([]cart.Item(nil), items...)
	return nil
}

type fakeWishlistStore struct {
	mu    sync.Mutex
	items map[string][]wishlist.Item
}

func (f *fakeWishlistStore) Load(_ context.Context, userID string) ([]wishlist.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wishlist.Item(nil), f.items[userID]...), nil
}

func (f *fakeWishlistStore) Save(_ context.Context, userID string, items []wishlist.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[userID] = append([]wishlist.Item(nil), items...)
	return nil
}

type fakeStats struct {
	stats repository.Stats
}

func (f *fakeStats) Summary(context.Context) (*repository.Stats, error) {
	s := f.stats
	return &s, nil
}

// testEnv bundles the handler under test with its fakes and a live server.
type testEnv struct {
	srv        *httptest.Server
	categories *fakeCategoryRepo
	products   *fakeProductRepo
	users      *fakeUserRepo
	orders     *fakeOrderRepo
	promos     *fakePromoRepo
	carts      *fakeCartStore
	wishlists  *fakeWishlistStore
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		categories: &fakeCategoryRepo{},
		products:   &fakeProductRepo{},
		users:      &fakeUserRepo{},
		orders:     &fakeOrderRepo{},
		promos:     &fakePromoRepo{rules: map[string]*promo.Rule{}},
		carts:      &fakeCartStore{items: map[string][]cart.Item{}},
		wishlists:  &fakeWishlistStore{items: map[string][]wishlist.Item{}},
	}

	authSvc := auth.NewService(env.users, auth.NewTokenIssuer([]byte("test-secret")))
	sessions := session.NewStore(env.carts, env.wishlists, time.Hour)
	orderSvc := order.NewService(env.orders, env.promos, nil, decimal.NewFromFloat(0.08))

	h := NewHandler(
		Config{TaxRate: decimal.NewFromFloat(0.08), AdminSecret: "let-me-in"},
		env.categories, env.products, authSvc, sessions, orderSvc, env.users,
		&fakeStats{stats: repository.Stats{Users: 2, Products: 3, Orders: 1, Revenue: decimal.NewFromFloat(48.58)}},
	)

	env.srv = httptest.NewServer(h.Routes())
	t.Cleanup(env.srv.Close)
	return env
}
