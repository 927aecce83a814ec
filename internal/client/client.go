// Package client is a typed Go SDK for the storefront API. It keeps the
// caller's session and the last known cart and wishlist snapshots, and folds
// every failure into one of four error kinds: ValidationError, HTTPError,
// NetworkError, AuthError.
//
// Cached snapshots are versioned per resource. When concurrent requests for
// the same resource complete out of order, a response that started before an
// already-applied one is discarded, so the cache never moves backwards.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to one storefront API server. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client

	sessionMu sync.RWMutex
	session   *Session

	stateMu     sync.RWMutex
	cart        *Cart
	wishlist    []WishlistItem
	cartVer     version
	wishlistVer version
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithToken seeds the client with a persisted session token. The session is
// unverified until Refresh succeeds.
func WithToken(token string) Option {
	return func(c *Client) { c.session = &Session{Token: token} }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentUser returns a copy of the active session, or nil when signed out.
func (c *Client) CurrentUser() *Session {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Logout discards the session and all cached state. The server keeps the
// user's persisted cart and wishlist for the next sign-in.
func (c *Client) Logout() {
	c.setSession(nil)
}

// Register creates an account and signs the client in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if req.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "must not be empty"}
	}
	if req.Password == "" {
		return nil, &ValidationError{Field: "password", Message: "must not be empty"}
	}
	var sess Session
	if err := c.roundTrip(ctx, http.MethodPost, "/api/auth/register", req, &sess, false); err != nil {
		return nil, err
	}
	c.setSession(&sess)
	return &sess, nil
}

// Login signs the client in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "must not be empty"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "must not be empty"}
	}
	var sess Session
	body := map[string]string{"email": email, "password": password}
	if err := c.roundTrip(ctx, http.MethodPost, "/api/auth/login", body, &sess, false); err != nil {
		return nil, err
	}
	c.setSession(&sess)
	return &sess, nil
}

// Refresh revalidates the stored token against the server. Fail-closed: any
// failure, including a network one, signs the client out, because an
// unverifiable session must never be treated as signed in.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	if c.CurrentUser() == nil {
		return nil, &AuthError{}
	}
	var sess Session
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &sess); err != nil {
		c.setSession(nil)
		return nil, err
	}
	// The token is not echoed back by the server; keep the one we hold.
	c.sessionMu.Lock()
	if c.session != nil && sess.Token == "" {
		sess.Token = c.session.Token
	}
	c.session = &sess
	c.sessionMu.Unlock()
	s := sess
	return &s, nil
}

func (c *Client) setSession(s *Session) {
	c.sessionMu.Lock()
	c.session = s
	c.sessionMu.Unlock()
	if s == nil {
		c.stateMu.Lock()
		c.cart = nil
		c.wishlist = nil
		c.stateMu.Unlock()
	}
}

func (c *Client) token() string {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// do performs one authenticated API call and translates the outcome into the
// client's error taxonomy. A 401 discards the session before returning
// AuthError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.roundTrip(ctx, method, path, body, out, true)
}

// roundTrip is the shared request path. Credential endpoints set authed to
// false: they carry no token, and a 401 there means bad credentials, which
// must not touch whatever session is already held.
func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, authed bool) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &ValidationError{Field: "body", Message: err.Error()}
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &ValidationError{Field: "request", Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		if authed {
			c.setSession(nil)
		}
		return &AuthError{Message: errorMessage(resp)}
	}
	// Forbidden means the token is valid but under-privileged; the session
	// stays.
	if resp.StatusCode == http.StatusForbidden {
		return &AuthError{Message: errorMessage(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &HTTPError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}

// errorMessage extracts the {"error": "..."} body, falling back to the
// generic status text.
func errorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(resp.StatusCode)
}

// version guards one cached resource against out-of-order responses. begin
// stamps a request; commit reports whether that request's response is still
// the newest applied and, if so, records it.
type version struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

func (v *version) begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	return v.issued
}

func (v *version) commit(seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seq <= v.applied {
		return false
	}
	v.applied = seq
	return true
}
