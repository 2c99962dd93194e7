package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// Order is an open ticket of purchased lines.
type Order struct {
	ID        uuid.UUID `json:"id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Line is a menu item captured on an order. Its price and category are copied at
// the time it was added; TaxExempt can be changed per line.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"itemId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  bill.Category   `json:"category"`
	TaxExempt bool            `json:"taxExempt"`
}

// Items converts the order lines to billable items, in line order.
func (o Order) Items() []bill.Item {
	items := make([]bill.Item, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = bill.Item{
			ID:        l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Category:  l.Category,
			TaxExempt: l.TaxExempt,
		}
	}
	return items
}

func (o Order) lineIndex(id uuid.UUID) int {
	for i, l := range o.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}
