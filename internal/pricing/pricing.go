// Package pricing computes tax-inclusive order amounts.
//
// All arithmetic runs on decimals and is converted back to float64 only at the
// edges, so that 80 * 2 * 18% is exactly 28.80 rather than 28.799999.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Line is the input needed to price one order or cart line.
type Line struct {
	Price           float64
	DiscountedPrice *float64
	Quantity        int
	TaxPercentage   float64
}

// Breakdown is the priced result of a single line.
type Breakdown struct {
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
}

// UnitPrice returns the discounted price when it is set, positive and lower
// than the list price; otherwise the list price.
func UnitPrice(price float64, discounted *float64) float64 {
	if discounted != nil && *discounted > 0 && *discounted < price {
		return *discounted
	}
	return price
}

func unitPrice(l Line) decimal.Decimal {
	return decimal.NewFromFloat(UnitPrice(l.Price, l.DiscountedPrice))
}

func subtotal(l Line) decimal.Decimal {
	return unitPrice(l).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func tax(l Line) decimal.Decimal {
	rate := decimal.NewFromFloat(l.TaxPercentage).Div(decimal.NewFromInt(100))
	return subtotal(l).Mul(rate)
}

// Price returns the rounded breakdown of a single line.
func Price(l Line) Breakdown {
	sub := subtotal(l)
	t := tax(l)
	return Breakdown{
		UnitPrice: unitPrice(l).Round(2).InexactFloat64(),
		Subtotal:  sub.Round(2).InexactFloat64(),
		Tax:       t.Round(2).InexactFloat64(),
		Total:     sub.Add(t).Round(2).InexactFloat64(),
	}
}

// Total sums subtotal plus tax across all lines and rounds the result to two
// decimal places. Rounding happens once, on the sum.
func Total(lines []Line) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(subtotal(l)).Add(tax(l))
	}
	return sum.Round(2).InexactFloat64()
}

// Round2 rounds an amount to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
