package client

import "time"

// Wire types mirror the API's JSON surface.

// Session is an authenticated identity and its bearer token.
type Session struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

// RegisterRequest is the input for creating an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Category is a catalog navigation group.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Product is a catalog item.
type Product struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Gender     string  `json:"gender,omitempty"`
	CategoryID string  `json:"category_id"`
	Image      string  `json:"image,omitempty"`
	InStock    bool    `json:"in_stock"`
}

// ProductQuery narrows a product listing; zero values are omitted.
type ProductQuery struct {
	Category string
	Gender   string
	MaxPrice float64
	Sort     string
}

// Variant distinguishes otherwise identical cart lines.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// CartItem is one cart line.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Variant   Variant `json:"variant,omitempty"`
}

// Totals is a cart's pricing breakdown.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Cart is the caller's current cart with totals.
type Cart struct {
	Items  []CartItem `json:"items"`
	Totals Totals     `json:"totals"`
}

// WishlistItem is one saved product.
type WishlistItem struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Image        string  `json:"image,omitempty"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
}

// OrderLine is one ordered product snapshot.
type OrderLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Variant   Variant `json:"variant,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	Items      []OrderLine `json:"items"`
	Subtotal   float64     `json:"subtotal"`
	Tax        float64     `json:"tax"`
	Shipping   float64     `json:"shipping"`
	Discount   float64     `json:"discount"`
	Total      float64     `json:"total"`
	PromoCode  string      `json:"promo_code,omitempty"`
	PaymentRef string      `json:"payment_ref,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
