package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/product"
	"github.com/northwind-labs/storefront/internal/domain/promo"
)

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, raw
}

func decodeInto(t *testing.T, raw []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func registerUser(t *testing.T, env *testEnv, email string) sessionDTO {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sess sessionDTO
	decodeInto(t, raw, &sess)
	require.NotEmpty(t, sess.Token)
	return sess
}

func seedCatalog(env *testEnv) {
	env.categories.categories = []category.Category{
		{ID: "cat-1", Name: "T-Shirts", Slug: "t-shirts"},
		{ID: "cat-2", Name: "Accessories", Slug: "accessories"},
	}
	env.products.products = []product.Product{
		{ID: "p-tee", Name: "Classic Tee", Price: decimal.NewFromFloat(19.99), CategoryID: "cat-1", Gender: "unisex", InStock: true},
		{ID: "p-cap", Name: "Logo Cap", Price: decimal.NewFromFloat(5.00), CategoryID: "cat-2", Gender: "unisex", InStock: true},
		{ID: "p-gone", Name: "Sold Out Hoodie", Price: decimal.NewFromFloat(39.99), CategoryID: "cat-1", InStock: false},
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	sess := registerUser(t, env, "shopper@example.com")
	require.Equal(t, "shopper@example.com", sess.Email)
	require.False(t, sess.IsAdmin)

	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "Shopper@Example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login sessionDTO
	decodeInto(t, raw, &login)
	require.Equal(t, sess.UserID, login.UserID)

	resp, raw = doJSON(t, http.MethodGet, env.srv.URL+"/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me sessionDTO
	decodeInto(t, raw, &me)
	require.Equal(t, sess.UserID, me.UserID)
}

func TestMeRejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := doJSON(t, http.MethodGet, env.srv.URL+"/api/auth/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	decodeInto(t, raw, &body)
	require.Equal(t, "invalid or expired token", body["error"])
}

func TestCategoryNotFoundBody(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)

	resp, raw := doJSON(t, http.MethodGet, env.srv.URL+"/api/categories/slug/no-such", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"error":"category not found"}`, string(raw))
}

func TestListProductsRejectsBadSort(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)

	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/api/products?sort=alphabetical", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListProductsFilters(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)

	resp, raw := doJSON(t, http.MethodGet, env.srv.URL+"/api/products?category=cat-1&max_price=25", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []productDTO
	decodeInto(t, raw, &products)
	require.Len(t, products, 1)
	require.Equal(t, "p-tee", products[0].ID)
}

func TestCartRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/api/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartFlowTotals(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	sess := registerUser(t, env, "cart@example.com")

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-tee", "quantity": 2, "variant": map[string]string{"size": "M"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-cap", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var c cartDTO
	decodeInto(t, raw, &c)
	require.Len(t, c.Items, 2)
	require.InDelta(t, 44.98, c.Totals.Subtotal, 1e-9)
	require.InDelta(t, 3.60, c.Totals.Tax, 1e-9)
	require.InDelta(t, 48.58, c.Totals.Total, 1e-9)

	// Same product and variant merges rather than adding a line.
	resp, raw = doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-tee", "quantity": 1, "variant": map[string]string{"size": "M"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, raw, &c)
	require.Len(t, c.Items, 2)
	require.Equal(t, 3, c.Items[0].Quantity)

	// Quantity zero removes the line.
	resp, raw = doJSON(t, http.MethodPut, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-tee", "quantity": 0, "variant": map[string]string{"size": "M"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, raw, &c)
	require.Len(t, c.Items, 1)
	require.Equal(t, "p-cap", c.Items[0].ProductID)
}

func TestAddCartItemOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	sess := registerUser(t, env, "stock@example.com")

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-gone", "quantity": 1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCartSurvivesSessionEviction(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	sess := registerUser(t, env, "persist@example.com")

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-cap", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The save hit the backing store, so a fresh session must rehydrate it.
	require.Len(t, env.carts.items[sess.UserID], 1)
	require.Equal(t, 2, env.carts.items[sess.UserID][0].Quantity)
}

func TestWishlistFlow(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	sess := registerUser(t, env, "wish@example.com")

	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/wishlist", sess.Token, map[string]string{
		"product_id": "p-tee",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []wishlistItemDTO
	decodeInto(t, raw, &items)
	require.Len(t, items, 1)
	require.Equal(t, "T-Shirts", items[0].CategoryName)

	// Re-adding is a no-op.
	resp, raw = doJSON(t, http.MethodPost, env.srv.URL+"/api/wishlist", sess.Token, map[string]string{
		"product_id": "p-tee",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, raw, &items)
	require.Len(t, items, 1)

	resp, raw = doJSON(t, http.MethodDelete, env.srv.URL+"/api/wishlist/p-tee", sess.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, raw, &items)
	require.Empty(t, items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	sess := registerUser(t, env, "empty@example.com")

	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/orders", sess.Token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.JSONEq(t, `{"error":"cart is empty"}`, string(raw))
}

func TestConcurrentCheckoutsPlaceOneOrder(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	sess := registerUser(t, env, "buyer@example.com")

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-tee", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Hold the first order create open while a second checkout for the same
	// session is issued; the second must wait and find the cart empty.
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	env.orders.onCreate = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	checkout := func() int {
		req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/orders", nil)
		if err != nil {
			return 0
		}
		req.Header.Set("Authorization", "Bearer "+sess.Token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return 0
		}
		defer resp.Body.Close()
		return resp.StatusCode
	}

	statuses := make(chan int, 2)
	go func() { statuses <- checkout() }()
	<-entered
	go func() { statuses <- checkout() }()

	time.Sleep(50 * time.Millisecond)
	close(release)

	got := []int{<-statuses, <-statuses}
	sort.Ints(got)
	require.Equal(t, []int{http.StatusCreated, http.StatusUnprocessableEntity}, got)
	require.Equal(t, 1, env.orders.count())
}

func TestCheckoutWithPromoClearsCart(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	env.promos.rules["SAVE10"] = &promo.Rule{
		Code:   "SAVE10",
		Kind:   promo.KindPercentage,
		Value:  decimal.NewFromInt(10),
		Active: true,
	}
	sess := registerUser(t, env, "buyer@example.com")

	for _, add := range []map[string]any{
		{"product_id": "p-tee", "quantity": 2},
		{"product_id": "p-cap", "quantity": 1},
	} {
		resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, add)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/orders", sess.Token, map[string]string{
		"promo_code": "SAVE10", "payment_ref": "pay_123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var o orderDTO
	decodeInto(t, raw, &o)
	require.Equal(t, "pending", o.Status)
	require.InDelta(t, 44.98, o.Subtotal, 1e-9)
	require.InDelta(t, 4.50, o.Discount, 1e-9)
	require.InDelta(t, 3.24, o.Tax, 1e-9)
	require.InDelta(t, 43.72, o.Total, 1e-9)
	require.Equal(t, "SAVE10", o.PromoCode)

	resp, raw = doJSON(t, http.MethodGet, env.srv.URL+"/api/cart", sess.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c cartDTO
	decodeInto(t, raw, &c)
	require.Empty(t, c.Items)

	resp, raw = doJSON(t, http.MethodGet, env.srv.URL+"/api/orders", sess.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []orderDTO
	decodeInto(t, raw, &orders)
	require.Len(t, orders, 1)
	require.Equal(t, o.ID, orders[0].ID)
}

func TestCheckoutInvalidPromoKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	sess := registerUser(t, env, "promo@example.com")

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", sess.Token, map[string]any{
		"product_id": "p-tee", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, env.srv.URL+"/api/orders", sess.Token, map[string]string{
		"promo_code": "NOPE",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, raw := doJSON(t, http.MethodGet, env.srv.URL+"/api/cart", sess.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c cartDTO
	decodeInto(t, raw, &c)
	require.Len(t, c.Items, 1)
}

func TestAdminGuard(t *testing.T) {
	env := newTestEnv(t)
	sess := registerUser(t, env, "user@example.com")

	// Regular session token is forbidden.
	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/api/admin/stats", sess.Token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// No credentials at all.
	resp, _ = doJSON(t, http.MethodGet, env.srv.URL+"/api/admin/stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Promoted admin gets in with the same token.
	env.users.promote("user@example.com")
	resp, raw := doJSON(t, http.MethodGet, env.srv.URL+"/api/admin/stats", sess.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats statsDTO
	decodeInto(t, raw, &stats)
	require.Equal(t, int64(2), stats.Users)
	require.InDelta(t, 48.58, stats.Revenue, 1e-9)
}

func TestAdminSecretHeader(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/admin/users", nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Secret", "let-me-in")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req.Header.Set("X-Admin-Secret", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminCatalogCRUD(t *testing.T) {
	env := newTestEnv(t)
	sess := registerUser(t, env, "admin@example.com")
	env.users.promote("admin@example.com")

	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/categories", sess.Token, map[string]string{
		"name": "Hats", "slug": "hats",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cat categoryDTO
	decodeInto(t, raw, &cat)
	require.NotEmpty(t, cat.ID)

	resp, raw = doJSON(t, http.MethodPost, env.srv.URL+"/api/products", sess.Token, map[string]any{
		"name": "Beanie", "price": 12.50, "category_id": cat.ID, "in_stock": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p productDTO
	decodeInto(t, raw, &p)
	require.InDelta(t, 12.50, p.Price, 1e-9)

	resp, _ = doJSON(t, http.MethodPost, env.srv.URL+"/api/products", sess.Token, map[string]any{
		"name": "Freebie", "price": 0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, env.srv.URL+"/api/products/"+p.ID, sess.Token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, env.srv.URL+"/api/products/"+p.ID, sess.Token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminOrderStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(env)
	buyer := registerUser(t, env, "transitions@example.com")

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/cart/items", buyer.Token, map[string]any{
		"product_id": "p-cap", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, raw := doJSON(t, http.MethodPost, env.srv.URL+"/api/orders", buyer.Token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var o orderDTO
	decodeInto(t, raw, &o)

	admin := registerUser(t, env, "ops@example.com")
	env.users.promote("ops@example.com")

	// pending -> delivered is not a legal jump.
	resp, _ = doJSON(t, http.MethodPut, env.srv.URL+"/api/admin/orders/"+o.ID+"/status", admin.Token, map[string]string{
		"status": "delivered",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPut, env.srv.URL+"/api/admin/orders/"+o.ID+"/status", admin.Token, map[string]string{
		"status": "paid",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, env.srv.URL+"/api/admin/orders", admin.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []orderDTO
	decodeInto(t, raw, &orders)
	require.Len(t, orders, 1)
	require.Equal(t, "paid", orders[0].Status)
}
