package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const statsSQL = `SELECT
	(SELECT count(*) FROM users),
	(SELECT count(*) FROM products),
	(SELECT count(*) FROM orders),
	(SELECT COALESCE(sum(total), 0) FROM orders WHERE status <> 'cancelled')`

// Stats is the admin dashboard summary.
type Stats struct {
	Users    int64
	Products int64
	Orders   int64
	Revenue  decimal.Decimal
}

// StatsRepository aggregates dashboard counters from the live tables.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository returns a StatsRepository that uses the given pool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Summary returns current store-wide totals. Cancelled orders are excluded
// from revenue.
func (r *StatsRepository) Summary(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, statsSQL).Scan(&s.Users, &s.Products, &s.Orders, &s.Revenue)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	return &s, nil
}
