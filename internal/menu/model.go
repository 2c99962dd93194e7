package menu

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// Item is a sellable menu entry.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  bill.Category   `json:"category"`
	TaxExempt bool            `json:"taxExempt"`
}

// BillItem converts the menu entry into the engine's item shape.
func (i Item) BillItem() bill.Item {
	return bill.Item{
		ID:        i.ID,
		Name:      i.Name,
		Price:     i.Price,
		Category:  i.Category,
		TaxExempt: i.TaxExempt,
	}
}

// Section groups the items of one category for display.
type Section struct {
	Name     string        `json:"name"`
	Category bill.Category `json:"category"`
	Items    []Item        `json:"items"`
}

// SectionName returns the display heading used for a category.
func SectionName(c bill.Category) string {
	switch c {
	case bill.Appetizer:
		return "Appetizers"
	case bill.Main:
		return "Mains"
	case bill.Dessert:
		return "Desserts"
	case bill.Drink:
		return "Drinks"
	case bill.Alcohol:
		return "Alcohol"
	default:
		return "Miscellaneous"
	}
}

// GroupSections groups items by category in canonical category order. Empty
// categories are omitted and item order within a section is preserved.
func GroupSections(items []Item) []Section {
	byCategory := make(map[bill.Category][]Item)
	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}
	sections := make([]Section, 0, len(byCategory))
	for _, c := range bill.AllCategories() {
		entries, ok := byCategory[c]
		if !ok {
			continue
		}
		sections = append(sections, Section{Name: SectionName(c), Category: c, Items: entries})
	}
	return sections
}
