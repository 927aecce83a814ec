// Package wishlist implements the saved-products state machine. Semantically
// a set keyed by product ID, but first-insertion order is preserved so the
// display stays stable.
package wishlist

import "github.com/shopspring/decimal"

// Item is a saved product reference with denormalized display fields.
type Item struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
}

// Wishlist holds a user's saved products. Not safe for concurrent use;
// callers serialize access via the session store.
type Wishlist struct {
	items []Item
	index map[string]struct{}
}

// New returns an empty wishlist.
func New() *Wishlist {
	return &Wishlist{index: make(map[string]struct{})}
}

// Restore rebuilds a wishlist from a persisted snapshot. Duplicate IDs in
// the snapshot are dropped, keeping the first occurrence.
func Restore(items []Item) *Wishlist {
	w := New()
	for _, it := range items {
		w.Add(it)
	}
	return w
}

// Add saves an item. Re-adding an already-present product ID is a no-op.
func (w *Wishlist) Add(item Item) {
	if _, ok := w.index[item.ProductID]; ok {
		return
	}
	w.index[item.ProductID] = struct{}{}
	w.items = append(w.items, item)
}

// Remove deletes the item with the given product ID, if present.
func (w *Wishlist) Remove(productID string) {
	if _, ok := w.index[productID]; !ok {
		return
	}
	delete(w.index, productID)
	for i := range w.items {
		if w.items[i].ProductID == productID {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return
		}
	}
}

// Has reports whether the product is saved.
func (w *Wishlist) Has(productID string) bool {
	_, ok := w.index[productID]
	return ok
}

// Clear removes every item.
func (w *Wishlist) Clear() {
	w.items = nil
	w.index = make(map[string]struct{})
}

// Items returns a copy of the saved items in first-insertion order.
func (w *Wishlist) Items() []Item {
	out := make([]Item, len(w.items))
	copy(out, w.items)
	return out
}

// Len returns the number of saved items.
func (w *Wishlist) Len() int {
	return len(w.items)
}
