// Package cart implements the cart line-item state machine. All mutations go
// through a small set of transitions on Cart; totals are derived on demand
// and never stored, so they cannot drift from the line items.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart transitions.
var (
	ErrInvalidPrice    = errors.New("price must be greater than 0")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Variant identifies a product option combination. The zero Variant is a
// product without options.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Item is one cart line: a product/variant and its quantity.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   Variant         `json:"variant,omitempty"`
}

// key identifies a line item. At most one line exists per key.
type key struct {
	productID string
	variant   Variant
}

// Cart holds an ordered list of line items. It is not safe for concurrent
// use; callers serialize access (the session store holds one mutex per
// session).
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore rebuilds a cart from a persisted snapshot, preserving line order.
func Restore(items []Item) *Cart {
	c := &Cart{items: make([]Item, len(items))}
	copy(c.items, items)
	return c
}

// AddItem adds qty units of the given item. If a line with the same
// (product, variant) already exists its quantity is incremented; otherwise a
// new line is appended, preserving insertion order.
func (c *Cart) AddItem(item Item, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !item.Price.IsPositive() {
		return ErrInvalidPrice
	}

	k := key{productID: item.ProductID, variant: item.Variant}
	for i := range c.items {
		if c.lineKey(i) == k {
			c.items[i].Quantity += qty
			return nil
		}
	}

	item.Quantity = qty
	c.items = append(c.items, item)
	return nil
}

// RemoveItem deletes the line matching (productID, variant). Removing an
// absent line is a no-op.
func (c *Cart) RemoveItem(productID string, variant Variant) {
	k := key{productID: productID, variant: variant}
	for i := range c.items {
		if c.lineKey(i) == k {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of the matching line. A quantity of zero
// or less removes the line; this is deliberate policy, not an error.
// Updating an absent line is a no-op.
func (c *Cart) UpdateQuantity(productID string, variant Variant, qty int) {
	if qty <= 0 {
		c.RemoveItem(productID, variant)
		return
	}
	k := key{productID: productID, variant: variant}
	for i := range c.items {
		if c.lineKey(i) == k {
			c.items[i].Quantity = qty
			return
		}
	}
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) lineKey(i int) key {
	return key{productID: c.items[i].ProductID, variant: c.items[i].Variant}
}
