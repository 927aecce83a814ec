// Package session holds each signed-in user's mutable storefront state: the
// cart and wishlist state machines. Every session is guarded by its own
// mutex, so state machines themselves stay free of locking; no state is ever
// shared across sessions.
//
// Mutations are write-through: the new snapshot is persisted before it
// becomes visible, and a failed save rolls the in-memory state back, so
// callers never observe state the backend has not confirmed.
package session

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/wishlist"
)

// CartStore persists per-user cart snapshots.
type CartStore interface {
	Load(ctx context.Context, userID string) ([]cart.Item, error)
	Save(ctx context.Context, userID string, items []cart.Item) error
}

// WishlistStore persists per-user wishlist snapshots.
type WishlistStore interface {
	Load(ctx context.Context, userID string) ([]wishlist.Item, error)
	Save(ctx context.Context, userID string, items []wishlist.Item) error
}

// AddCartItem merges qty units of item into the session's cart.
func (s *State) AddCartItem(ctx context.Context, item cart.Item, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cart.Items()
	if err := s.cart.AddItem(item, qty); err != nil {
		return err
	}
	return s.saveCart(ctx, prev)
}

// RemoveCartItem deletes a cart line.
func (s *State) RemoveCartItem(ctx context.Context, productID string, variant cart.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cart.Items()
	s.cart.RemoveItem(productID, variant)
	return s.saveCart(ctx, prev)
}

// UpdateCartQuantity sets a line's quantity; zero or less removes the line.
func (s *State) UpdateCartQuantity(ctx context.Context, productID string, variant cart.Variant, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cart.Items()
	s.cart.UpdateQuantity(productID, variant, qty)
	return s.saveCart(ctx, prev)
}

// ClearCart empties the cart.
func (s *State) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cart.Items()
	s.cart.Clear()
	return s.saveCart(ctx, prev)
}

// CartItems returns the cart lines in insertion order.
func (s *State) CartItems() []cart.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// ErrClearNotPersisted reports that place succeeded and the in-memory cart
// was emptied, but the empty snapshot could not be saved. The order exists;
// callers should treat this as a warning, not a failed checkout.
var ErrClearNotPersisted = errors.New("cart clear not persisted")

// Checkout runs place with a snapshot of the cart and, on success, clears
// the cart, all under the session lock. Concurrent checkouts on the same
// session serialize here: the second one sees the already-emptied cart, so
// one cart can never produce two orders. A failed place leaves the cart
// untouched.
func (s *State) Checkout(ctx context.Context, place func(snapshot *cart.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := place(cart.Restore(s.cart.Items())); err != nil {
		return err
	}

	// The order is placed; the cart must empty even if the save below
	// fails, otherwise a retry on this session would place it again.
	s.cart.Clear()
	if err := s.carts.Save(ctx, s.userID, s.cart.Items()); err != nil {
		return errors.Wrapf(ErrClearNotPersisted, "save cart: %s", err)
	}
	return nil
}

// CartTotals prices the current cart with no discount applied.
func (s *State) CartTotals(taxRate decimal.Decimal) cart.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ComputeTotals(taxRate, decimal.Zero)
}

// AddWishlistItem saves a product; re-adding is a no-op but still persists
// nothing new, so the save is skipped.
func (s *State) AddWishlistItem(ctx context.Context, item wishlist.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wishlist.Has(item.ProductID) {
		return nil
	}
	prev := s.wishlist.Items()
	s.wishlist.Add(item)
	return s.saveWishlist(ctx, prev)
}

// RemoveWishlistItem removes a saved product.
func (s *State) RemoveWishlistItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.wishlist.Has(productID) {
		return nil
	}
	prev := s.wishlist.Items()
	s.wishlist.Remove(productID)
	return s.saveWishlist(ctx, prev)
}

// WishlistItems returns the saved products in first-insertion order.
func (s *State) WishlistItems() []wishlist.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Items()
}

// HasWishlistItem reports whether the product is saved.
func (s *State) HasWishlistItem(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Has(productID)
}

// saveCart persists the current cart; on failure the previous snapshot is
// restored so memory and storage never diverge. Caller holds s.mu.
func (s *State) saveCart(ctx context.Context, prev []cart.Item) error {
	if err := s.carts.Save(ctx, s.userID, s.cart.Items()); err != nil {
		s.cart = cart.Restore(prev)
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// saveWishlist persists the current wishlist with the same rollback
// contract as saveCart. Caller holds s.mu.
func (s *State) saveWishlist(ctx context.Context, prev []wishlist.Item) error {
	if err := s.wishlists.Save(ctx, s.userID, s.wishlist.Items()); err != nil {
		s.wishlist = wishlist.Restore(prev)
		return errors.Wrap(err, "save wishlist")
	}
	return nil
}
