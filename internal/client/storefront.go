package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// --- Catalog ---

// Categories lists all catalog categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryBySlug fetches one category by its URL slug.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	if slug == "" {
		return nil, &ValidationError{Field: "slug", Message: "must not be empty"}
	}
	var out Category
	if err := c.do(ctx, http.MethodGet, "/api/categories/slug/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Products lists catalog products matching the query.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	vals := url.Values{}
	if q.Category != "" {
		vals.Set("category", q.Category)
	}
	if q.Gender != "" {
		vals.Set("gender", q.Gender)
	}
	if q.MaxPrice > 0 {
		vals.Set("max_price", strconv.FormatFloat(q.MaxPrice, 'f', 2, 64))
	}
	if q.Sort != "" {
		vals.Set("sort", q.Sort)
	}
	path := "/api/products"
	if len(vals) > 0 {
		path += "?" + vals.Encode()
	}
	var out []Product
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductByID fetches one product.
func (c *Client) ProductByID(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "must not be empty"}
	}
	var out Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Cart ---

// CachedCart returns the last cart snapshot applied, or nil before any cart
// call has completed.
func (c *Client) CachedCart() *Cart {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return copyCart(c.cart)
}

// FetchCart loads the current cart from the server.
func (c *Client) FetchCart(ctx context.Context) (*Cart, error) {
	return c.cartCall(ctx, http.MethodGet, "/api/cart", nil)
}

// AddToCart puts qty units of a product variant in the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, qty int, variant Variant) (*Cart, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if qty <= 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	body := map[string]any{"product_id": productID, "quantity": qty, "variant": variant}
	return c.cartCall(ctx, http.MethodPost, "/api/cart/items", body)
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, qty int, variant Variant) (*Cart, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if qty < 0 {
		return nil, &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	body := map[string]any{"product_id": productID, "quantity": qty, "variant": variant}
	return c.cartCall(ctx, http.MethodPut, "/api/cart/items", body)
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, productID string, variant Variant) (*Cart, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	vals := url.Values{"product_id": {productID}}
	if variant.Size != "" {
		vals.Set("size", variant.Size)
	}
	if variant.Color != "" {
		vals.Set("color", variant.Color)
	}
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/items?"+vals.Encode(), nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (*Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart", nil)
}

// cartCall performs one cart request and applies the returned snapshot
// unless a newer one has already been applied.
func (c *Client) cartCall(ctx context.Context, method, path string, body any) (*Cart, error) {
	seq := c.cartVer.begin()
	var cart Cart
	if err := c.do(ctx, method, path, body, &cart); err != nil {
		return nil, err
	}
	c.stateMu.Lock()
	if c.cartVer.commit(seq) {
		c.cart = copyCart(&cart)
	}
	c.stateMu.Unlock()
	return &cart, nil
}

func copyCart(in *Cart) *Cart {
	if in == nil {
		return nil
	}
	out := &Cart{Items: append([]CartItem(nil), in.Items...), Totals: in.Totals}
	return out
}

// --- Wishlist ---

// CachedWishlist returns the last wishlist snapshot applied.
func (c *Client) CachedWishlist() []WishlistItem {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return append([]WishlistItem(nil), c.wishlist...)
}

// FetchWishlist loads the wishlist from the server.
func (c *Client) FetchWishlist(ctx context.Context) ([]WishlistItem, error) {
	return c.wishlistCall(ctx, http.MethodGet, "/api/wishlist", nil)
}

// AddToWishlist saves a product; re-adding is a no-op.
func (c *Client) AddToWishlist(ctx context.Context, productID string) ([]WishlistItem, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	body := map[string]string{"product_id": productID}
	return c.wishlistCall(ctx, http.MethodPost, "/api/wishlist", body)
}

// RemoveFromWishlist drops a saved product.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) ([]WishlistItem, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	return c.wishlistCall(ctx, http.MethodDelete, "/api/wishlist/"+url.PathEscape(productID), nil)
}

func (c *Client) wishlistCall(ctx context.Context, method, path string, body any) ([]WishlistItem, error) {
	seq := c.wishlistVer.begin()
	var items []WishlistItem
	if err := c.do(ctx, method, path, body, &items); err != nil {
		return nil, err
	}
	c.stateMu.Lock()
	if c.wishlistVer.commit(seq) {
		c.wishlist = append([]WishlistItem(nil), items...)
	}
	c.stateMu.Unlock()
	return items, nil
}

// --- Orders ---

// Checkout places an order from the current cart. On success the cached
// cart snapshot is reset to empty, matching the server.
func (c *Client) Checkout(ctx context.Context, promoCode, paymentRef string) (*Order, error) {
	seq := c.cartVer.begin()
	body := map[string]string{}
	if promoCode != "" {
		body["promo_code"] = promoCode
	}
	if paymentRef != "" {
		body["payment_ref"] = paymentRef
	}
	var o Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", body, &o); err != nil {
		return nil, err
	}
	c.stateMu.Lock()
	if c.cartVer.commit(seq) {
		c.cart = &Cart{Items: []CartItem{}}
	}
	c.stateMu.Unlock()
	return &o, nil
}

// Orders lists the caller's orders, most recent first.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
