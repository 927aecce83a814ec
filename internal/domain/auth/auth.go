// Package auth implements user accounts and session tokens. Passwords are
// bcrypt-hashed and never stored or logged in clear text; sessions are
// stateless HS256 JWTs with a fixed expiry.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for authentication flows.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is a registered account. PasswordHash never leaves this layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Avatar       string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Session is an authenticated identity plus its bearer token. A session is
// replaced as a whole on login/registration; there is no partial update.
type Session struct {
	UserID    string
	Token     string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Avatar    string
	IsAdmin   bool
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
}
