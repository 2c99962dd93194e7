package bill

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one purchased line eligible for billing.
type Item struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Category  Category
	TaxExempt bool
}

// TaxRule is a percentage levy, optionally restricted to a set of categories.
// An empty Categories set applies the rule to every non-exempt item.
type TaxRule struct {
	ID         uuid.UUID
	Name       string
	Rate       decimal.Decimal
	Enabled    bool
	Categories []Category
}

// DiscountType tags the variant held by a DiscountKind.
type DiscountType string

const (
	// DiscountPercentage takes Value percent of the running balance.
	DiscountPercentage DiscountType = "percentage"
	// DiscountAmount takes a fixed Value, capped at the running balance.
	DiscountAmount DiscountType = "amount"
)

// DiscountKind is either a percentage or a fixed amount.
type DiscountKind struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Percentage builds a percentage discount kind; 10 means 10%.
func Percentage(rate decimal.Decimal) DiscountKind {
	return DiscountKind{Type: DiscountPercentage, Value: rate}
}

// Amount builds a fixed amount discount kind.
func Amount(value decimal.Decimal) DiscountKind {
	return DiscountKind{Type: DiscountAmount, Value: value}
}

// DiscountRule reduces the running balance by its Kind when enabled.
type DiscountRule struct {
	ID      uuid.UUID
	Name    string
	Enabled bool
	Kind    DiscountKind
}

// Line records what a single rule contributed, in evaluation order.
type Line struct {
	RuleID uuid.UUID
	Name   string
	Amount decimal.Decimal
}

// Bill is the result of one calculation.
type Bill struct {
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	GrandTotal    decimal.Decimal

	ItemizedTaxes     map[uuid.UUID]decimal.Decimal
	ItemizedDiscounts map[uuid.UUID]decimal.Decimal

	// Taxes and Discounts hold the same amounts as the maps, ordered as evaluated.
	Taxes     []Line
	Discounts []Line
}

// TaxFor returns the amount contributed by the tax rule with the given id.
func (b Bill) TaxFor(id uuid.UUID) (decimal.Decimal, bool) {
	v, ok := b.ItemizedTaxes[id]
	return v, ok
}

// DiscountFor returns the amount contributed by the discount rule with the given id.
func (b Bill) DiscountFor(id uuid.UUID) (decimal.Decimal, bool) {
	v, ok := b.ItemizedDiscounts[id]
	return v, ok
}
