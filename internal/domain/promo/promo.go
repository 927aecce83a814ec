// Package promo implements checkout promo codes: flat or percentage
// discounts applied to the cart subtotal before tax.
package promo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	// KindPercentage discounts a percentage of the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed discounts a fixed amount, capped at the subtotal.
	KindFixed Kind = "fixed"
)

var (
	// ErrInvalidCode is returned when a promo code is unknown, inactive, or
	// the cart does not meet its minimum subtotal.
	ErrInvalidCode = errors.New("invalid promo code")
)

// Rule defines a promo code's discount behaviour and eligibility.
type Rule struct {
	Code        string
	Kind        Kind
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
	Description string
	Active      bool
}

// Repository provides promo rule lookup.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

var hundred = decimal.NewFromInt(100)

// Apply computes the discount the rule grants on the given subtotal.
// It returns ErrInvalidCode when the rule is inactive or the subtotal is
// below the rule's minimum.
func Apply(rule *Rule, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if !rule.Active {
		return decimal.Zero, ErrInvalidCode
	}
	if rule.MinSubtotal.IsPositive() && subtotal.LessThan(rule.MinSubtotal) {
		return decimal.Zero, ErrInvalidCode
	}

	switch rule.Kind {
	case KindPercentage:
		return clamp(subtotal.Mul(rule.Value).Div(hundred), subtotal), nil
	case KindFixed:
		return clamp(rule.Value, subtotal), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported promo kind: %q", rule.Kind)
	}
}

// clamp bounds a discount to [0, subtotal].
func clamp(d, subtotal decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}
