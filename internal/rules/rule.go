package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

var (
	// ErrInvalidRule reports a rule that failed construction checks.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrRuleNotFound reports an unknown rule id.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrDuplicateRule reports an id that is already registered.
	ErrDuplicateRule = errors.New("rule already exists")
)

var hundred = decimal.NewFromInt(100)

// NewTax builds an enabled tax rule. An empty categories list taxes every non-exempt item;
// a category listed more than once is kept once.
func NewTax(name string, rate decimal.Decimal, categories []bill.Category) (bill.TaxRule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return bill.TaxRule{}, fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if rate.IsNegative() {
		return bill.TaxRule{}, fmt.Errorf("%w: rate must not be negative", ErrInvalidRule)
	}
	cats := make([]bill.Category, 0, len(categories))
	seen := make(map[bill.Category]struct{}, len(categories))
	for _, c := range categories {
		if !c.Valid() {
			return bill.TaxRule{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRule, c)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, c)
	}
	return bill.TaxRule{
		ID:         uuid.New(),
		Name:       name,
		Rate:       rate,
		Enabled:    true,
		Categories: cats,
	}, nil
}

// NewPercentageDiscount builds a disabled discount taking rate percent of the balance.
func NewPercentageDiscount(name string, rate decimal.Decimal) (bill.DiscountRule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return bill.DiscountRule{}, fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return bill.DiscountRule{}, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidRule)
	}
	return bill.DiscountRule{ID: uuid.New(), Name: name, Kind: bill.Percentage(rate)}, nil
}

// NewAmountDiscount builds a disabled fixed-amount discount.
func NewAmountDiscount(name string, amount decimal.Decimal) (bill.DiscountRule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return bill.DiscountRule{}, fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if amount.IsNegative() {
		return bill.DiscountRule{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidRule)
	}
	return bill.DiscountRule{ID: uuid.New(), Name: name, Kind: bill.Amount(amount)}, nil
}

// NewDiscount dispatches to the constructor matching kind.
func NewDiscount(name string, kind bill.DiscountType, value decimal.Decimal) (bill.DiscountRule, error) {
	switch kind {
	case bill.DiscountPercentage:
		return NewPercentageDiscount(name, value)
	case bill.DiscountAmount:
		return NewAmountDiscount(name, value)
	default:
		return bill.DiscountRule{}, fmt.Errorf("%w: unknown discount type %q", ErrInvalidRule, kind)
	}
}

func cloneTax(t bill.TaxRule) bill.TaxRule {
	if t.Categories != nil {
		t.Categories = append([]bill.Category(nil), t.Categories...)
	}
	return t
}
