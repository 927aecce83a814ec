// Package repository implements the domain repositories on PostgreSQL via
// pgx. Queries are plain SQL constants; NUMERIC columns scan into
// shopspring decimals.
package repository

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/db"
)

const (
	poolMaxConns        = 16
	poolMaxConnIdleTime = 5 * time.Minute
)

// NewPool creates a pgxpool.Pool with shopspring/decimal support registered
// for NUMERIC columns. The pool is pinged before being returned, so a bad
// database URL fails at startup rather than on first query.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns < poolMaxConns {
		cfg.MaxConns = poolMaxConns
	}
	cfg.MaxConnIdleTime = poolMaxConnIdleTime
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// RunMigrations applies the embedded schema. Statements are idempotent, so
// this runs on every startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
