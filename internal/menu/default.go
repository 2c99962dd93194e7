package menu

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// itemNamespace derives stable menu item ids from their names.
var itemNamespace = uuid.MustParse("6f1c2a52-7d9e-4b8e-9a61-3c0f5de2b7a4")

// ItemID returns the deterministic id of the menu item with the given name.
func ItemID(name string) uuid.UUID {
	return uuid.NewSHA1(itemNamespace, []byte(strings.ToLower(strings.TrimSpace(name))))
}

func entry(category bill.Category) func(name, price string) Item {
	return func(name, price string) Item {
		return Item{
			ID:       ItemID(name),
			Name:     name,
			Price:    decimal.RequireFromString(price),
			Category: category,
		}
	}
}

// DefaultMenu returns the house menu used when no database is configured.
func DefaultMenu() []Item {
	appetizers := entry(bill.Appetizer)
	mains := entry(bill.Main)
	drinks := entry(bill.Drink)
	alcohol := entry(bill.Alcohol)

	return []Item{
		appetizers("Nachos", "13.99"),
		appetizers("Calamari", "11.99"),
		appetizers("Caesar Salad", "10.99"),

		mains("Burger", "9.99"),
		mains("Hotdog", "3.99"),
		mains("Pizza", "12.99"),

		drinks("Water", "0"),
		drinks("Pop", "2.00"),
		drinks("Orange Juice", "3.00"),

		alcohol("Beer", "5.00"),
		alcohol("Cider", "6.00"),
		alcohol("Wine", "7.00"),
	}
}
