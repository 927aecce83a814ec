package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/wishlist"
	"github.com/northwind-labs/storefront/internal/session"
)

const (
	getWishlistSQL = `SELECT items FROM wishlists WHERE user_id = $1`

	upsertWishlistSQL = `INSERT INTO wishlists (user_id, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`
)

var _ session.WishlistStore = (*WishlistRepository)(nil)

// WishlistRepository persists per-user wishlist snapshots as JSONB
// documents.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Load returns the user's saved products. A user with no wishlist gets an
// empty slice, not an error.
func (r *WishlistRepository) Load(ctx context.Context, userID string) ([]wishlist.Item, error) {
	var itemsJSON []byte
	err := r.pool.QueryRow(ctx, getWishlistSQL, userID).Scan(&itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading wishlist for user %q: %w", userID, err)
	}

	var items []wishlist.Item
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling wishlist items: %w", err)
	}
	return items, nil
}

// Save replaces the user's wishlist snapshot.
func (r *WishlistRepository) Save(ctx context.Context, userID string, items []wishlist.Item) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling wishlist items: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertWishlistSQL, userID, itemsJSON); err != nil {
		return fmt.Errorf("saving wishlist for user %q: %w", userID, err)
	}
	return nil
}
