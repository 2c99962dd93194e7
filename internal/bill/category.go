package bill

import (
	"fmt"
	"strings"
)

// Category classifies a billable item. The set is closed.
type Category string

const (
	Appetizer     Category = "Appetizer"
	Main          Category = "Main"
	Dessert       Category = "Dessert"
	Drink         Category = "Drink"
	Alcohol       Category = "Alcohol"
	Miscellaneous Category = "Miscellaneous"
)

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	return []Category{Appetizer, Main, Dessert, Drink, Alcohol, Miscellaneous}
}

// FoodCategories returns the food categories.
func FoodCategories() []Category {
	return []Category{Appetizer, Main, Dessert}
}

// BeverageCategories returns the drink categories, alcoholic or not.
func BeverageCategories() []Category {
	return []Category{Drink, Alcohol}
}

// AllButAlcohol returns every food and drink category except Alcohol.
func AllButAlcohol() []Category {
	return []Category{Appetizer, Main, Dessert, Drink}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Appetizer, Main, Dessert, Drink, Alcohol, Miscellaneous:
		return true
	}
	return false
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(value string) (Category, error) {
	trimmed := strings.TrimSpace(value)
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("bill: unknown category %q", value)
}
