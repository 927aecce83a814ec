package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/order"
)

const (
	orderColumns = `id, user_id, status, items, subtotal, tax, shipping, discount, total, promo_code, payment_ref, created_at`

	insertOrderSQL = `INSERT INTO orders (id, user_id, status, items, subtotal, tax, shipping, discount, total, promo_code, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items live in a JSONB column; the pricing breakdown is stored in NUMERIC
// columns so admin reporting can aggregate without unpacking JSON.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, string(o.Status), itemsJSON,
		o.Subtotal, o.Tax, o.Shipping, o.Discount, o.Total,
		o.PromoCode, o.PaymentRef, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListByUser returns the user's orders, most recent first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns every order, most recent first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus sets an order's status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		status    string
		itemsJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &status, &itemsJSON,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Discount, &o.Total,
		&o.PromoCode, &o.PaymentRef, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}
