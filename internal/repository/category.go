package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/category"
)

const (
	listCategoriesSQL = `SELECT id, name, slug, description, image
		FROM categories ORDER BY name`

	getCategoryBySlugSQL = `SELECT id, name, slug, description, image
		FROM categories WHERE slug = $1`

	getCategoryByIDSQL = `SELECT id, name, slug, description, image
		FROM categories WHERE id = $1`

	insertCategorySQL = `INSERT INTO categories (id, name, slug, description, image)
		VALUES ($1, $2, $3, $4, $5)`

	updateCategorySQL = `UPDATE categories
		SET name = $2, slug = $3, description = $4, image = $5 WHERE id = $1`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetBySlug returns the category with the given URL slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*category.Category, error) {
	return r.getOne(ctx, getCategoryBySlugSQL, slug)
}

// GetByID returns the category with the given identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	return r.getOne(ctx, getCategoryByIDSQL, id)
}

func (r *CategoryRepository) getOne(ctx context.Context, query, arg string) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", arg, err)
	}
	return &c, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	_, err := r.pool.Exec(ctx, insertCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.Image)
	if err != nil {
		return fmt.Errorf("creating category %q: %w", c.ID, err)
	}
	return nil
}

// Update replaces an existing category's fields.
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Slug, c.Description, c.Image)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image)
	return c, err
}
