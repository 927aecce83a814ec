package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, price, gender, category_id, image, in_stock`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, price, gender, category_id, image, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, gender = EXCLUDED.gender,
			category_id = EXCLUDED.category_id, image = EXCLUDED.image, in_stock = EXCLUDED.in_stock`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products matching the filter. The WHERE clause and
// ORDER BY are assembled from the filter's non-zero fields.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE TRUE`
	args := []any{}

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Gender != "" {
		args = append(args, f.Gender)
		query += fmt.Sprintf(" AND gender = $%d", len(args))
	}
	if f.MaxPrice.IsPositive() {
		args = append(args, f.MaxPrice)
		query += fmt.Sprintf(" AND price <= $%d", len(args))
	}

	switch f.Sort {
	case product.SortPriceAsc:
		query += " ORDER BY price ASC, id"
	case product.SortPriceDesc:
		query += " ORDER BY price DESC, id"
	default:
		query += " ORDER BY created_at DESC, id"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts or replaces a product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	return r.upsert(ctx, p)
}

// Update replaces an existing product's fields.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	return r.upsert(ctx, p)
}

func (r *ProductRepository) upsert(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Price, p.Gender, p.CategoryID, p.Image, p.InStock,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Gender, &p.CategoryID, &p.Image, &p.InStock)
	return p, err
}
