package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/promo"
)

const getPromoByCodeSQL = `SELECT code, kind, value, min_subtotal, description, active
	FROM promos WHERE code = UPPER($1)`

const upsertPromoSQL = `INSERT INTO promos (code, kind, value, min_subtotal, description, active)
	VALUES (UPPER($1), $2, $3, $4, $5, $6)
	ON CONFLICT (code) DO UPDATE SET
		kind = EXCLUDED.kind, value = EXCLUDED.value, min_subtotal = EXCLUDED.min_subtotal,
		description = EXCLUDED.description, active = EXCLUDED.active`

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL. Codes
// are stored upper-case; lookups are case-insensitive.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up a promo rule. Returns promo.ErrInvalidCode when the
// code does not exist.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding promo %q: %w", code, err)
	}
	return &rule, nil
}

// Upsert inserts or replaces a promo rule. Used by seeding.
func (r *PromoRepository) Upsert(ctx context.Context, rule *promo.Rule) error {
	_, err := r.pool.Exec(ctx, upsertPromoSQL,
		rule.Code, string(rule.Kind), rule.Value, rule.MinSubtotal, rule.Description, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting promo %q: %w", rule.Code, err)
	}
	return nil
}

func scanPromo(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule promo.Rule
		kind string
	)
	err := row.Scan(&rule.Code, &kind, &rule.Value, &rule.MinSubtotal, &rule.Description, &rule.Active)
	rule.Kind = promo.Kind(kind)
	return rule, err
}
