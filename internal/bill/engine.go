package bill

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculate computes the bill for items under the given tax and discount rules.
//
// Taxes are evaluated in input order against the non-exempt item totals. Discounts
// are applied in input order to a running balance that starts at subtotal plus tax;
// each one sees the balance left by the previous ones, so reordering them changes
// the result. Disabled rules are skipped and never itemized. Inputs are not mutated
// and the returned Bill shares no state with them.
func Calculate(items []Item, taxes []TaxRule, discounts []DiscountRule) Bill {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price)
	}

	taxTotal, taxLines := calculateTaxes(items, taxes, subtotal)
	discountTotal, discountLines := calculateDiscounts(subtotal.Add(taxTotal), discounts)

	return Bill{
		Subtotal:          subtotal,
		TaxTotal:          taxTotal,
		DiscountTotal:     discountTotal,
		GrandTotal:        subtotal.Add(taxTotal).Sub(discountTotal),
		ItemizedTaxes:     itemize(taxLines),
		ItemizedDiscounts: itemize(discountLines),
		Taxes:             taxLines,
		Discounts:         discountLines,
	}
}

func calculateTaxes(items []Item, taxes []TaxRule, subtotal decimal.Decimal) (decimal.Decimal, []Line) {
	if len(items) == 0 && subtotal.IsZero() {
		return decimal.Zero, []Line{}
	}

	byCategory := make(map[Category]decimal.Decimal)
	taxable := decimal.Zero
	for _, it := range items {
		if it.TaxExempt {
			continue
		}
		byCategory[it.Category] = byCategory[it.Category].Add(it.Price)
		taxable = taxable.Add(it.Price)
	}

	total := decimal.Zero
	lines := make([]Line, 0, len(taxes))
	for _, tax := range taxes {
		if !tax.Enabled {
			continue
		}
		base := taxable
		if len(tax.Categories) > 0 {
			base = categoryBase(byCategory, tax.Categories)
		}
		amount := percentOf(base, tax.Rate)
		total = total.Add(amount)
		lines = append(lines, Line{RuleID: tax.ID, Name: tax.Name, Amount: amount})
	}
	return total, lines
}

// categoryBase sums the totals of the listed categories, counting each at most once.
func categoryBase(byCategory map[Category]decimal.Decimal, categories []Category) decimal.Decimal {
	base := decimal.Zero
	seen := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		base = base.Add(byCategory[c])
	}
	return base
}

func calculateDiscounts(balance decimal.Decimal, discounts []DiscountRule) (decimal.Decimal, []Line) {
	total := decimal.Zero
	lines := make([]Line, 0, len(discounts))
	for _, d := range discounts {
		if !d.Enabled {
			continue
		}
		var amount decimal.Decimal
		switch d.Kind.Type {
		case DiscountPercentage:
			amount = percentOf(balance, d.Kind.Value)
		case DiscountAmount:
			amount = decimal.Min(d.Kind.Value, balance)
		default:
			amount = decimal.Zero
		}
		balance = balance.Sub(amount)
		total = total.Add(amount)
		lines = append(lines, Line{RuleID: d.ID, Name: d.Name, Amount: amount})
	}
	return total, lines
}

// percentOf returns base × rate / 100. Shifting the exponent keeps it exact.
func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Shift(-2)
}

func itemize(lines []Line) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		out[l.RuleID] = l.Amount
	}
	return out
}
