package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/wishlist"
)

// State is one user's in-memory storefront state. All access goes through
// its mutex; pointers to State are shared between requests for the same
// user but never across users.
type State struct {
	userID string

	mu       sync.Mutex
	cart     *cart.Cart
	wishlist *wishlist.Wishlist
	lastUsed time.Time

	carts     CartStore
	wishlists WishlistStore
}

// Store hands out session states keyed by user ID, rehydrating them from
// persistence on first access and evicting idle ones in the background.
type Store struct {
	carts     CartStore
	wishlists WishlistStore
	idleTTL   time.Duration

	mu       sync.Mutex
	sessions map[string]*State
}

// NewStore creates a session Store. Sessions idle longer than idleTTL are
// evicted by the janitor; their state stays persisted and is rehydrated on
// the next access.
func NewStore(carts CartStore, wishlists WishlistStore, idleTTL time.Duration) *Store {
	return &Store{
		carts:     carts,
		wishlists: wishlists,
		idleTTL:   idleTTL,
		sessions:  make(map[string]*State),
	}
}

// Get returns the user's session state, loading persisted cart and wishlist
// snapshots when the session is not yet resident.
func (st *Store) Get(ctx context.Context, userID string) (*State, error) {
	st.mu.Lock()
	s, ok := st.sessions[userID]
	if ok {
		s.touch()
		st.mu.Unlock()
		return s, nil
	}
	st.mu.Unlock()

	// Rehydrate outside the store lock; loading may hit the database.
	cartItems, err := st.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	wishItems, err := st.wishlists.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load wishlist")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	// Another request may have rehydrated concurrently; keep the first.
	if s, ok = st.sessions[userID]; ok {
		s.touch()
		return s, nil
	}

	s = &State{
		userID:    userID,
		cart:      cart.Restore(cartItems),
		wishlist:  wishlist.Restore(wishItems),
		lastUsed:  time.Now(),
		carts:     st.carts,
		wishlists: st.wishlists,
	}
	st.sessions[userID] = s
	return s, nil
}

// Drop discards the user's resident session state, e.g. on logout. The
// persisted snapshots are untouched.
func (st *Store) Drop(userID string) {
	st.mu.Lock()
	delete(st.sessions, userID)
	st.mu.Unlock()
}

// StartJanitor evicts idle sessions periodically until ctx is cancelled.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				st.evictIdle(now)
			}
		}
	}()
}

func (st *Store) evictIdle(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastUsed) >= st.idleTTL
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
		}
	}
}

func (s *State) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}
