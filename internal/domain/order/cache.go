package order

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// Cache is a read-through, per-user cache of order lists. Orders are written
// only by this service's repository, so a cached snapshot is valid until a
// local mutation invalidates it; a refetch replaces the whole snapshot
// (last-write-wins, no merging of stale and fresh entries).
type Cache struct {
	source Repository

	mu     sync.RWMutex
	byUser map[string][]Order
}

// NewCache creates a Cache backed by the given repository.
func NewCache(source Repository) *Cache {
	return &Cache{
		source: source,
		byUser: make(map[string][]Order),
	}
}

// Get returns the user's orders, most recent first. On a miss the snapshot
// is fetched from the repository and stored; fetch failures are not cached.
func (c *Cache) Get(ctx context.Context, userID string) ([]Order, error) {
	c.mu.RLock()
	cached, ok := c.byUser[userID]
	c.mu.RUnlock()
	if ok {
		return snapshot(cached), nil
	}

	fetched, err := c.source.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch orders")
	}

	c.mu.Lock()
	c.byUser[userID] = fetched
	c.mu.Unlock()

	return snapshot(fetched), nil
}

// Invalidate drops the cached snapshot for the user; the next Get refetches.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.byUser, userID)
	c.mu.Unlock()
}

// snapshot copies the slice so callers cannot mutate the cached backing
// array.
func snapshot(orders []Order) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)
	return out
}
