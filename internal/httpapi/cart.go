package httpapi

import (
	"net/http"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/session"
)

// state resolves the caller's session state, rehydrating it if needed.
func (h *Handler) state(r *http.Request) (*session.State, error) {
	return h.sessions.Get(r.Context(), sessionFrom(r.Context()).UserID)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(st.CartItems(), st.CartTotals(h.cfg.TaxRate)))
}

type addCartItemRequest struct {
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Variant   variantDTO `json:"variant"`
}

// addCartItem looks the product up so the line carries the catalog's current
// name and price; clients never supply prices.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !p.InStock {
		writeError(w, http.StatusUnprocessableEntity, "product is out of stock")
		return
	}

	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	item := cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Variant:   cart.Variant(req.Variant),
	}
	if err := st.AddCartItem(r.Context(), item, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(st.CartItems(), st.CartTotals(h.cfg.TaxRate)))
}

type updateCartItemRequest struct {
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Variant   variantDTO `json:"variant"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := st.UpdateCartQuantity(r.Context(), req.ProductID, cart.Variant(req.Variant), req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(st.CartItems(), st.CartTotals(h.cfg.TaxRate)))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("product_id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	variant := cart.Variant{Size: q.Get("size"), Color: q.Get("color")}

	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := st.RemoveCartItem(r.Context(), productID, variant); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(st.CartItems(), st.CartTotals(h.cfg.TaxRate)))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := st.ClearCart(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(st.CartItems(), st.CartTotals(h.cfg.TaxRate)))
}
