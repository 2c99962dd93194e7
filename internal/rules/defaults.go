package rules

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// Fixed ids keep the house rules addressable across restarts without a database.
var (
	ServiceTaxID = uuid.MustParse("0b7e6a3c-1f52-4c1e-8d3a-5a9f0e2c7b10")
	FoodGSTID    = uuid.MustParse("0b7e6a3c-1f52-4c1e-8d3a-5a9f0e2c7b11")
	AlcoholTaxID = uuid.MustParse("0b7e6a3c-1f52-4c1e-8d3a-5a9f0e2c7b12")
	CouponID     = uuid.MustParse("5d2c9f84-6b0a-4e37-9c15-2f8a7d1e4c20")
	FlatTenID    = uuid.MustParse("5d2c9f84-6b0a-4e37-9c15-2f8a7d1e4c21")
	HappyHourID  = uuid.MustParse("5d2c9f84-6b0a-4e37-9c15-2f8a7d1e4c22")
)

// DefaultRules returns the house taxes, all enabled, and the house discounts, all disabled.
func DefaultRules() ([]bill.TaxRule, []bill.DiscountRule) {
	taxes := []bill.TaxRule{
		{ID: ServiceTaxID, Name: "Service Tax", Rate: decimal.NewFromInt(10), Enabled: true, Categories: bill.AllButAlcohol()},
		{ID: FoodGSTID, Name: "Food GST", Rate: decimal.NewFromInt(5), Enabled: true, Categories: bill.FoodCategories()},
		{ID: AlcoholTaxID, Name: "Alcohol Tax", Rate: decimal.NewFromInt(15), Enabled: true, Categories: []bill.Category{bill.Alcohol}},
	}
	discounts := []bill.DiscountRule{
		{ID: CouponID, Name: "Coupon", Kind: bill.Amount(decimal.NewFromInt(5))},
		{ID: FlatTenID, Name: "Flat 10%", Kind: bill.Percentage(decimal.NewFromInt(10))},
		{ID: HappyHourID, Name: "Happy Hour", Kind: bill.Percentage(decimal.NewFromInt(5))},
	}
	return taxes, discounts
}

// DefaultRegistry returns a registry holding DefaultRules.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	taxes, discounts := DefaultRules()
	for _, t := range taxes {
		_ = reg.AddTax(t)
	}
	for _, d := range discounts {
		_ = reg.AddDiscount(d)
	}
	return reg
}
