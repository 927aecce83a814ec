package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/product"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]categoryDTO, len(cats))
	for i, c := range cats {
		out[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*c))
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and slug are required")
		return
	}
	c := category.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.categories.Create(r.Context(), &c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c := category.Category{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.categories.Update(r.Context(), &c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(c))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := product.Filter{
		CategoryID: q.Get("category"),
		Gender:     q.Get("gender"),
		Sort:       q.Get("sort"),
	}
	if raw := q.Get("max_price"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil || maxPrice.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		f.MaxPrice = maxPrice
	}
	switch f.Sort {
	case "", product.SortNewest, product.SortPriceAsc, product.SortPriceDesc:
	default:
		writeError(w, http.StatusBadRequest, "invalid sort")
		return
	}

	products, err := h.products.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]productDTO, len(products))
	for i, p := range products {
		out[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

type productRequest struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Gender     string  `json:"gender"`
	CategoryID string  `json:"category_id"`
	Image      string  `json:"image"`
	InStock    bool    `json:"in_stock"`
}

func (req *productRequest) toDomain(id string) (*product.Product, string) {
	if req.Name == "" {
		return nil, "name is required"
	}
	if req.Price <= 0 {
		return nil, "price must be positive"
	}
	return &product.Product{
		ID:         id,
		Name:       req.Name,
		Price:      decimal.NewFromFloat(req.Price).Round(2),
		Gender:     req.Gender,
		CategoryID: req.CategoryID,
		Image:      req.Image,
		InStock:    req.InStock,
	}, ""
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, msg := req.toDomain(uuid.New().String())
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, msg := req.toDomain(r.PathValue("id"))
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if err := h.products.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
