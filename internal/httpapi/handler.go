// Package httpapi exposes the storefront REST surface. Handlers decode
// JSON, delegate to domain services, and map domain errors onto HTTP
// statuses. Every failure response has the shape {"error": "..."} so
// clients can surface the message verbatim.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/northwind-labs/storefront/internal/domain/auth"
	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/order"
	"github.com/northwind-labs/storefront/internal/domain/product"
	"github.com/northwind-labs/storefront/internal/domain/promo"
	"github.com/northwind-labs/storefront/internal/repository"
	"github.com/northwind-labs/storefront/internal/session"
)

// Config holds non-dependency settings for the Handler.
type Config struct {
	// TaxRate is the sales tax applied to the discounted subtotal, e.g. 0.08.
	TaxRate decimal.Decimal
	// AdminSecret, when non-empty, enables the legacy shared-secret header as
	// an alternative admin credential. Empty disables it entirely.
	AdminSecret string
}

// StatsProvider supplies store-wide totals for the admin dashboard.
type StatsProvider interface {
	Summary(ctx context.Context) (*repository.Stats, error)
}

// Handler wires the REST routes to the domain layer.
type Handler struct {
	cfg        Config
	categories category.Repository
	products   product.Repository
	authSvc    *auth.Service
	sessions   *session.Store
	orders     *order.Service
	users      auth.Repository
	stats      StatsProvider
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	cfg Config,
	categories category.Repository,
	products product.Repository,
	authSvc *auth.Service,
	sessions *session.Store,
	orders *order.Service,
	users auth.Repository,
	stats StatsProvider,
) *Handler {
	return &Handler{
		cfg:        cfg,
		categories: categories,
		products:   products,
		authSvc:    authSvc,
		sessions:   sessions,
		orders:     orders,
		users:      users,
		stats:      stats,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Catalog (public reads, admin mutations).
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/categories/slug/{slug}", h.getCategoryBySlug)
	mux.Handle("POST /api/categories", h.requireAdmin(h.createCategory))
	mux.Handle("PUT /api/categories/{id}", h.requireAdmin(h.updateCategory))
	mux.Handle("DELETE /api/categories/{id}", h.requireAdmin(h.deleteCategory))

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.Handle("POST /api/products", h.requireAdmin(h.createProduct))
	mux.Handle("PUT /api/products/{id}", h.requireAdmin(h.updateProduct))
	mux.Handle("DELETE /api/products/{id}", h.requireAdmin(h.deleteProduct))

	// Auth.
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.Handle("GET /api/auth/me", h.requireAuth(h.me))

	// Cart.
	mux.Handle("GET /api/cart", h.requireAuth(h.getCart))
	mux.Handle("POST /api/cart/items", h.requireAuth(h.addCartItem))
	mux.Handle("PUT /api/cart/items", h.requireAuth(h.updateCartItem))
	mux.Handle("DELETE /api/cart/items", h.requireAuth(h.removeCartItem))
	mux.Handle("DELETE /api/cart", h.requireAuth(h.clearCart))

	// Wishlist.
	mux.Handle("GET /api/wishlist", h.requireAuth(h.getWishlist))
	mux.Handle("POST /api/wishlist", h.requireAuth(h.addWishlistItem))
	mux.Handle("DELETE /api/wishlist/{productID}", h.requireAuth(h.removeWishlistItem))

	// Orders.
	mux.Handle("POST /api/orders", h.requireAuth(h.checkout))
	mux.Handle("GET /api/orders", h.requireAuth(h.listOrders))

	// Admin panel.
	mux.Handle("GET /api/admin/stats", h.requireAdmin(h.adminStats))
	mux.Handle("GET /api/admin/users", h.requireAdmin(h.adminUsers))
	mux.Handle("GET /api/admin/orders", h.requireAdmin(h.adminOrders))
	mux.Handle("PUT /api/admin/orders/{id}/status", h.requireAdmin(h.adminSetOrderStatus))

	return mux
}

// --- Context helpers ---

type sessionKey struct{}

// sessionFrom returns the authenticated session stored by requireAuth.
func sessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey{}).(*auth.Session)
	return s
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeDomainError maps a domain error onto an HTTP status. Unknown errors
// are logged and reported as an opaque 500; their text never reaches the
// client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, category.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, promo.ErrInvalidCode),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidPrice):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// bearerToken extracts the Bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
