package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleLines() []pricing.Line {
	return []pricing.Line{
		{UnitPrice: d("10.00"), Quantity: 2},
		{UnitPrice: d("5.00"), Quantity: 1},
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name         string
		lines        []pricing.Line
		discount     string
		tip          string
		wantSubtotal string
		wantDiscount string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "no discount",
			lines:        sampleLines(),
			discount:     "0",
			tip:          "0",
			wantSubtotal: "25.00",
			wantDiscount: "0.00",
			wantTax:      "2.00",
			wantTotal:    "27.00",
		},
		{
			name:         "with discount",
			lines:        sampleLines(),
			discount:     "5.00",
			tip:          "0",
			wantSubtotal: "25.00",
			wantDiscount: "5.00",
			wantTax:      "1.60",
			wantTotal:    "21.60",
		},
		{
			name:         "tip is not taxed",
			lines:        sampleLines(),
			discount:     "5.00",
			tip:          "3.00",
			wantSubtotal: "25.00",
			wantDiscount: "5.00",
			wantTax:      "1.60",
			wantTotal:    "24.60",
		},
		{
			name:         "discount clamped to subtotal",
			lines:        sampleLines(),
			discount:     "40.00",
			tip:          "1.00",
			wantSubtotal: "25.00",
			wantDiscount: "25.00",
			wantTax:      "0.00",
			wantTotal:    "1.00",
		},
		{
			name:         "negative discount ignored",
			lines:        sampleLines(),
			discount:     "-3.00",
			tip:          "0",
			wantSubtotal: "25.00",
			wantDiscount: "0.00",
			wantTax:      "2.00",
			wantTotal:    "27.00",
		},
		{
			name:         "zero items",
			lines:        nil,
			discount:     "0",
			tip:          "0",
			wantSubtotal: "0.00",
			wantDiscount: "0.00",
			wantTax:      "0.00",
			wantTotal:    "0.00",
		},
		{
			name:         "tax rounds half up",
			lines:        []pricing.Line{{UnitPrice: d("0.0625"), Quantity: 1}, {UnitPrice: d("0.00"), Quantity: 3}},
			discount:     "0",
			tip:          "0",
			wantSubtotal: "0.06",
			wantDiscount: "0.00",
			wantTax:      "0.01",
			wantTotal:    "0.07",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.Calculate(tt.lines, d(tt.discount), d(tt.tip), pricing.DefaultTaxRate)

			assert.Equal(t, tt.wantSubtotal, pricing.Format(got.Subtotal))
			assert.Equal(t, tt.wantDiscount, pricing.Format(got.Discount))
			assert.Equal(t, tt.wantTax, pricing.Format(got.Tax))
			assert.Equal(t, tt.wantTotal, pricing.Format(got.Total))
		})
	}
}

func TestCalculate_TotalIdentity(t *testing.T) {
	prices := []string{"0.01", "0.99", "3.33", "7.45", "12.50", "19.99", "104.07"}
	discounts := []string{"0", "0.50", "2.37", "15.00"}
	tips := []string{"0", "1.11", "4.00"}

	for qty := 1; qty <= 4; qty++ {
		for i := range prices {
			lines := make([]pricing.Line, 0, i+1)
			sum := decimal.Zero
			for _, p := range prices[:i+1] {
				lines = append(lines, pricing.Line{UnitPrice: d(p), Quantity: qty})
				sum = sum.Add(d(p).Mul(decimal.NewFromInt(int64(qty))))
			}

			for _, disc := range discounts {
				for _, tip := range tips {
					got := pricing.Calculate(lines, d(disc), d(tip), pricing.DefaultTaxRate)

					require.True(t, got.Subtotal.Equal(sum), "subtotal %s != %s", got.Subtotal, sum)
					want := got.Subtotal.Sub(got.Discount).Add(got.Tax).Add(got.Tip)
					require.True(t, got.Total.Equal(want), "total %s != %s", got.Total, want)
					require.True(t, got.Tax.Equal(got.Taxable.Mul(pricing.DefaultTaxRate).Round(2)))
				}
			}
		}
	}
}

func TestWithTip(t *testing.T) {
	totals := pricing.Calculate(sampleLines(), d("5.00"), decimal.Zero, pricing.DefaultTaxRate)

	withTip := totals.WithTip(d("3.00"))

	assert.Equal(t, "24.60", pricing.Format(withTip.Total))
	assert.Equal(t, "21.60", pricing.Format(totals.Total))
}

func TestChange(t *testing.T) {
	due := d("24.60")

	_, err := pricing.Change(due, d("20.00"))
	require.ErrorIs(t, err, pricing.ErrInsufficientTender)

	change, err := pricing.Change(due, d("30.00"))
	require.NoError(t, err)
	assert.Equal(t, "5.40", pricing.Format(change))

	change, err = pricing.Change(due, due)
	require.NoError(t, err)
	assert.True(t, change.IsZero())
}
