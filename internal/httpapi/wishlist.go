package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/wishlist"
)

func (h *Handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWishlistDTO(st.WishlistItems()))
}

type addWishlistItemRequest struct {
	ProductID string `json:"product_id"`
}

// addWishlistItem denormalizes the product's category name into the saved
// item so wishlist listings render without extra lookups. Re-adding a saved
// product is a no-op.
func (h *Handler) addWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req addWishlistItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	categoryName := ""
	if p.CategoryID != "" {
		c, err := h.categories.GetByID(r.Context(), p.CategoryID)
		switch {
		case err == nil:
			categoryName = c.Name
		case !errors.Is(err, category.ErrNotFound):
			writeDomainError(w, r, err)
			return
		}
	}

	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	item := wishlist.Item{
		ProductID:    p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: categoryName,
	}
	if err := st.AddWishlistItem(r.Context(), item); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWishlistDTO(st.WishlistItems()))
}

func (h *Handler) removeWishlistItem(w http.ResponseWriter, r *http.Request) {
	st, err := h.state(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := st.RemoveWishlistItem(r.Context(), r.PathValue("productID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWishlistDTO(st.WishlistItems()))
}
