package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northwind-labs/storefront/internal/domain/auth"
)

const (
	userColumns = `id, email, password_hash, first_name, last_name, phone, avatar, is_admin, created_at`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	listUsersSQL      = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	insertUserSQL = `INSERT INTO users (id, email, password_hash, first_name, last_name, phone, avatar, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository implements auth.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Avatar, u.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// GetByEmail returns the account registered under the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// GetByID returns the account with the given identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

func (r *UserRepository) getOne(ctx context.Context, query, arg string) (*auth.User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns every account, newest first, for the admin panel.
func (r *UserRepository) List(ctx context.Context) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

func scanUser(row pgx.CollectableRow) (auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Avatar, &u.IsAdmin, &u.CreatedAt,
	)
	return u, err
}
