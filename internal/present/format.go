// Package present formats bill amounts for display. Rounding happens here only;
// the engine's amounts stay exact.
package present

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// Formatter renders money in one currency.
type Formatter struct {
	Symbol string
	Code   string
	Places int32
}

// USD is the default formatter.
var USD = Formatter{Symbol: "$", Code: "USD", Places: 2}

// Format rounds d half-to-even to Places and prefixes the symbol, with the sign first.
func (f Formatter) Format(d decimal.Decimal) string {
	rounded := d.StringFixedBank(f.Places)
	if len(rounded) > 0 && rounded[0] == '-' {
		if isZero(rounded[1:]) {
			return f.Symbol + rounded[1:]
		}
		return "-" + f.Symbol + rounded[1:]
	}
	return f.Symbol + rounded
}

func isZero(s string) bool {
	for _, r := range s {
		if r != '0' && r != '.' {
			return false
		}
	}
	return true
}

// LineLabel is a formatted itemization entry.
type LineLabel struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Labels is the display block of a bill.
type Labels struct {
	Currency  string      `json:"currency"`
	Subtotal  string      `json:"subtotal"`
	Taxes     []LineLabel `json:"taxes"`
	TaxTotal  string      `json:"taxTotal"`
	Discounts []LineLabel `json:"discounts"`
	Discount  string      `json:"discountTotal"`
	Total     string      `json:"total"`
}

// Summary formats a bill. Discounts are shown as negative amounts.
func (f Formatter) Summary(b bill.Bill) Labels {
	return Labels{
		Currency:  f.Code,
		Subtotal:  f.Format(b.Subtotal),
		Taxes:     f.Lines(b.Taxes, false),
		TaxTotal:  f.Format(b.TaxTotal),
		Discounts: f.Lines(b.Discounts, true),
		Discount:  f.Format(b.DiscountTotal.Neg()),
		Total:     f.Format(b.GrandTotal),
	}
}

// Lines formats itemized amounts in evaluation order, optionally negated.
func (f Formatter) Lines(lines []bill.Line, negate bool) []LineLabel {
	out := make([]LineLabel, len(lines))
	for i, l := range lines {
		amount := l.Amount
		if negate {
			amount = amount.Neg()
		}
		out[i] = LineLabel{Name: l.Name, Amount: f.Format(amount)}
	}
	return out
}
