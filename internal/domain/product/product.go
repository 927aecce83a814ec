package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item available for purchase.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Gender     string
	CategoryID string
	Image      string
	InStock    bool
}

// Sort orders supported by catalog listings.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Filter narrows a catalog listing. Zero values mean "no constraint".
type Filter struct {
	CategoryID string
	Gender     string
	// MaxPrice excludes products priced above it when positive.
	MaxPrice decimal.Decimal
	// Sort is one of the Sort constants; empty means SortNewest.
	Sort string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
