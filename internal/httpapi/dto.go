package httpapi

import (
	"time"

	"github.com/northwind-labs/storefront/internal/domain/auth"
	"github.com/northwind-labs/storefront/internal/domain/cart"
	"github.com/northwind-labs/storefront/internal/domain/category"
	"github.com/northwind-labs/storefront/internal/domain/order"
	"github.com/northwind-labs/storefront/internal/domain/product"
	"github.com/northwind-labs/storefront/internal/domain/wishlist"
	"github.com/northwind-labs/storefront/internal/repository"
)

// Monetary values cross the wire as floats rounded to cents; all arithmetic
// happens on decimals before conversion.

type categoryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

func toCategoryDTO(c category.Category) categoryDTO {
	return categoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Image:       c.Image,
	}
}

type productDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Gender     string  `json:"gender,omitempty"`
	CategoryID string  `json:"category_id"`
	Image      string  `json:"image,omitempty"`
	InStock    bool    `json:"in_stock"`
}

func toProductDTO(p product.Product) productDTO {
	return productDTO{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price.InexactFloat64(),
		Gender:     p.Gender,
		CategoryID: p.CategoryID,
		Image:      p.Image,
		InStock:    p.InStock,
	}
}

type variantDTO struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

type cartItemDTO struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Quantity  int        `json:"quantity"`
	Variant   variantDTO `json:"variant,omitempty"`
}

func toCartItemDTO(it cart.Item) cartItemDTO {
	return cartItemDTO{
		ProductID: it.ProductID,
		Name:      it.Name,
		Price:     it.Price.InexactFloat64(),
		Quantity:  it.Quantity,
		Variant:   variantDTO(it.Variant),
	}
}

type totalsDTO struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

func toTotalsDTO(t cart.Totals) totalsDTO {
	return totalsDTO{
		Subtotal: t.Subtotal.InexactFloat64(),
		Discount: t.Discount.InexactFloat64(),
		Tax:      t.Tax.InexactFloat64(),
		Shipping: t.Shipping.InexactFloat64(),
		Total:    t.Total.InexactFloat64(),
	}
}

type cartDTO struct {
	Items  []cartItemDTO `json:"items"`
	Totals totalsDTO     `json:"totals"`
}

func toCartDTO(items []cart.Item, totals cart.Totals) cartDTO {
	out := cartDTO{Items: make([]cartItemDTO, len(items)), Totals: toTotalsDTO(totals)}
	for i, it := range items {
		out.Items[i] = toCartItemDTO(it)
	}
	return out
}

type wishlistItemDTO struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Image        string  `json:"image,omitempty"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
}

func toWishlistDTO(items []wishlist.Item) []wishlistItemDTO {
	out := make([]wishlistItemDTO, len(items))
	for i, it := range items {
		out[i] = wishlistItemDTO{
			ProductID:    it.ProductID,
			Name:         it.Name,
			Price:        it.Price.InexactFloat64(),
			Image:        it.Image,
			CategoryID:   it.CategoryID,
			CategoryName: it.CategoryName,
		}
	}
	return out
}

type orderLineDTO struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Quantity  int        `json:"quantity"`
	Variant   variantDTO `json:"variant,omitempty"`
}

type orderDTO struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Status     string         `json:"status"`
	Items      []orderLineDTO `json:"items"`
	Subtotal   float64        `json:"subtotal"`
	Tax        float64        `json:"tax"`
	Shipping   float64        `json:"shipping"`
	Discount   float64        `json:"discount"`
	Total      float64        `json:"total"`
	PromoCode  string         `json:"promo_code,omitempty"`
	PaymentRef string         `json:"payment_ref,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func toOrderDTO(o order.Order) orderDTO {
	lines := make([]orderLineDTO, len(o.Items))
	for i, l := range o.Items {
		lines[i] = orderLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			Variant:   variantDTO(l.Variant),
		}
	}
	return orderDTO{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Items:      lines,
		Subtotal:   o.Subtotal.InexactFloat64(),
		Tax:        o.Tax.InexactFloat64(),
		Shipping:   o.Shipping.InexactFloat64(),
		Discount:   o.Discount.InexactFloat64(),
		Total:      o.Total.InexactFloat64(),
		PromoCode:  o.PromoCode,
		PaymentRef: o.PaymentRef,
		CreatedAt:  o.CreatedAt,
	}
}

func toOrderDTOs(orders []order.Order) []orderDTO {
	out := make([]orderDTO, len(orders))
	for i, o := range orders {
		out[i] = toOrderDTO(o)
	}
	return out
}

type sessionDTO struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

func toSessionDTO(s *auth.Session) sessionDTO {
	return sessionDTO{
		UserID:    s.UserID,
		Token:     s.Token,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Phone:     s.Phone,
		Avatar:    s.Avatar,
		IsAdmin:   s.IsAdmin,
	}
}

type userDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTOs(users []auth.User) []userDTO {
	out := make([]userDTO, len(users))
	for i, u := range users {
		out[i] = userDTO{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Phone:     u.Phone,
			IsAdmin:   u.IsAdmin,
			CreatedAt: u.CreatedAt,
		}
	}
	return out
}

type statsDTO struct {
	Users    int64   `json:"users"`
	Products int64   `json:"products"`
	Orders   int64   `json:"orders"`
	Revenue  float64 `json:"revenue"`
}

func toStatsDTO(s *repository.Stats) statsDTO {
	return statsDTO{
		Users:    s.Users,
		Products: s.Products,
		Orders:   s.Orders,
		Revenue:  s.Revenue.InexactFloat64(),
	}
}
