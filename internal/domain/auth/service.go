package auth

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Service implements registration, login, and token verification against the
// user repository.
type Service struct {
	users  Repository
	tokens *TokenIssuer
}

// NewService creates an auth Service.
func NewService(users Repository, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new account and returns a fresh session for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, errors.Wrap(err, "check existing email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	return s.newSession(u)
}

// Login verifies credentials and returns a fresh session. The error for a
// missing user and a wrong password is identical so logins cannot be used to
// probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "lookup user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(u)
}

// Authenticate validates a bearer token and returns the session it proves.
// Fail-closed: any failure, including a repository error, yields no session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(err, "lookup user")
	}

	sess := sessionFor(u, token)
	return &sess, nil
}

func (s *Service) newSession(u *User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "issue token")
	}
	sess := sessionFor(u, token)
	return &sess, nil
}

func sessionFor(u *User, token string) Session {
	return Session{
		UserID:    u.ID,
		Token:     token,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		IsAdmin:   u.IsAdmin,
	}
}
