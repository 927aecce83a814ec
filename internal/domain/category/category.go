package category

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested category does not exist.
var ErrNotFound = errors.New("category not found")

// Category groups products for navigation and filtering.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Image       string
}

// Repository defines persistence operations for categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}
