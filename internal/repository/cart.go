package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/session"
)

const (
	getCartSQL = `SELECT items FROM carts WHERE user_id = $1`

	upsertCartSQL = `INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`
)

var _ session.CartStore = (*CartRepository)(nil)

// CartRepository persists per-user cart snapshots as JSONB documents. The
// session store replaces the whole document on every mutation.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load returns the user's persisted cart lines. A user with no saved cart
// gets an empty slice, not an error.
func (r *CartRepository) Load(ctx context.Context, userID string) ([]cart.Item, error) {
	var itemsJSON []byte
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading cart for user %q: %w", userID, err)
	}

	var items []cart.Item
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	return items, nil
}

// Save replaces the user's cart snapshot.
func (r *CartRepository) Save(ctx context.Context, userID string, items []cart.Item) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertCartSQL, userID, itemsJSON); err != nil {
		return fmt.Errorf("saving cart for user %q: %w", userID, err)
	}
	return nil
}
