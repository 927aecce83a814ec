package cart

import "github.com/shopspring/decimal"

// Totals is a derived pricing breakdown. Amounts are rounded to 2 decimal
// places for display; intermediate math keeps full precision.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal returns the exact sum of price*quantity across all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// ComputeTotals prices the cart with the given tax rate (e.g. 0.08 for 8%)
// and discount. Tax applies to the discounted subtotal; shipping is free.
// The discount is capped at the subtotal so the total never goes negative.
// Each amount is rounded before the next stage consumes it, so
// Subtotal-Discount+Tax always equals Total to the cent.
func (c *Cart) ComputeTotals(taxRate, discount decimal.Decimal) Totals {
	subtotal := c.Subtotal().Round(2)

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = discount.Round(2)

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Round(2)
	shipping := decimal.Zero

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    taxable.Add(tax).Add(shipping),
	}
}
