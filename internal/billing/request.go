package billing

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/rules"
)

// QuoteRequest describes what to price. A nil Taxes or Discounts uses the registry;
// an empty list prices without any.
type QuoteRequest struct {
	ItemIDs   []uuid.UUID     `json:"itemIds" validate:"max=500"`
	Items     []ItemInput     `json:"items" validate:"max=500,dive"`
	Taxes     []TaxInput      `json:"taxes" validate:"omitempty,max=50,dive"`
	Discounts []DiscountInput `json:"discounts" validate:"omitempty,max=50,dive"`
}

// ItemInput is an ad-hoc item that is not on the menu.
type ItemInput struct {
	Name      string          `json:"name" validate:"required,max=120"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category" validate:"required"`
	TaxExempt bool            `json:"taxExempt"`
}

// TaxInput is an inline tax rule.
type TaxInput struct {
	ID         *uuid.UUID      `json:"id"`
	Name       string          `json:"name" validate:"required,max=80"`
	Rate       decimal.Decimal `json:"rate"`
	Categories []string        `json:"categories" validate:"max=6"`
	Enabled    *bool           `json:"enabled"`
}

// DiscountInput is an inline discount rule, applied in list order.
type DiscountInput struct {
	ID      *uuid.UUID      `json:"id"`
	Name    string          `json:"name" validate:"required,max=80"`
	Type    string          `json:"type" validate:"required,oneof=percentage amount"`
	Value   decimal.Decimal `json:"value"`
	Enabled *bool           `json:"enabled"`
}

func (r QuoteRequest) billItems() ([]bill.Item, error) {
	items := make([]bill.Item, 0, len(r.Items))
	for i, in := range r.Items {
		category, err := bill.ParseCategory(in.Category)
		if err != nil {
			return nil, invalidInput("items", i, err)
		}
		if in.Price.IsNegative() {
			return nil, invalidInput("items", i, errors.New("price must not be negative"))
		}
		items = append(items, bill.Item{
			ID:        uuid.New(),
			Name:      in.Name,
			Price:     in.Price,
			Category:  category,
			TaxExempt: in.TaxExempt,
		})
	}
	return items, nil
}

func (r QuoteRequest) taxRules() ([]bill.TaxRule, error) {
	taxes := make([]bill.TaxRule, 0, len(r.Taxes))
	seen := make(map[uuid.UUID]struct{}, len(r.Taxes))
	for i, in := range r.Taxes {
		categories := make([]bill.Category, 0, len(in.Categories))
		for _, raw := range in.Categories {
			c, err := bill.ParseCategory(raw)
			if err != nil {
				return nil, invalidInput("taxes", i, err)
			}
			categories = append(categories, c)
		}
		tax, err := rules.NewTax(in.Name, in.Rate, categories)
		if err != nil {
			return nil, invalidInput("taxes", i, err)
		}
		if in.ID != nil {
			tax.ID = *in.ID
		}
		if err := claimID(seen, tax.ID); err != nil {
			return nil, invalidInput("taxes", i, err)
		}
		if in.Enabled != nil {
			tax.Enabled = *in.Enabled
		}
		taxes = append(taxes, tax)
	}
	return taxes, nil
}

func (r QuoteRequest) discountRules() ([]bill.DiscountRule, error) {
	discounts := make([]bill.DiscountRule, 0, len(r.Discounts))
	seen := make(map[uuid.UUID]struct{}, len(r.Discounts))
	for i, in := range r.Discounts {
		d, err := rules.NewDiscount(in.Name, bill.DiscountType(in.Type), in.Value)
		if err != nil {
			return nil, invalidInput("discounts", i, err)
		}
		if in.ID != nil {
			d.ID = *in.ID
		}
		if err := claimID(seen, d.ID); err != nil {
			return nil, invalidInput("discounts", i, err)
		}
		d.Enabled = in.Enabled == nil || *in.Enabled
		discounts = append(discounts, d)
	}
	return discounts, nil
}

// claimID records id, failing when an earlier rule in the same list already used it.
func claimID(seen map[uuid.UUID]struct{}, id uuid.UUID) error {
	if _, dup := seen[id]; dup {
		return fmt.Errorf("%w: duplicate id %s", rules.ErrDuplicateRule, id)
	}
	seen[id] = struct{}{}
	return nil
}

func invalidInput(field string, index int, err error) error {
	return common.NewAppError("INVALID_INPUT", err.Error(), http.StatusBadRequest, err).
		WithDetails(map[string]any{"field": field, "index": index})
}
