// Package pricing derives order totals from line items.
//
// All arithmetic is exact decimal. Only the tax is rounded (2 places, half-up),
// which keeps Total == Subtotal - Discount + Tax + Tip true for the values that
// are stored and shown. Persisted totals count as presented values, so the
// tax is rounded here instead of at the HTTP layer.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the restaurant's sales tax.
var DefaultTaxRate = decimal.RequireFromString("0.08")

var ErrInsufficientTender = errors.New("tendered amount is less than total due")

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Taxable  decimal.Decimal `json:"taxable"`
	Tax      decimal.Decimal `json:"tax"`
	Tip      decimal.Decimal `json:"tip"`
	Total    decimal.Decimal `json:"total"`
}

// Calculate prices the given lines. The discount is clamped to [0, subtotal]
// and a negative tip counts as zero.
func Calculate(lines []Line, discount, tip, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if tip.IsNegative() {
		tip = decimal.Zero
	}

	taxable := subtotal.Sub(discount)
	tax := RoundMoney(taxable.Mul(taxRate))

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Tip:      tip,
		Total:    taxable.Add(tax).Add(tip),
	}
}

// WithTip returns t with the tip replaced and the total recomputed.
func (t Totals) WithTip(tip decimal.Decimal) Totals {
	if tip.IsNegative() {
		tip = decimal.Zero
	}
	t.Tip = tip
	t.Total = t.Taxable.Add(t.Tax).Add(tip)
	return t
}

// Change returns tendered - due, or ErrInsufficientTender when short.
func Change(due, tendered decimal.Decimal) (decimal.Decimal, error) {
	if tendered.LessThan(due) {
		return decimal.Zero, ErrInsufficientTender
	}
	return tendered.Sub(due), nil
}

// RoundMoney rounds half-up to cents. Amounts handled here are never negative,
// so decimal's half-away-from-zero rounding is half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
