package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category is a spending category derived from an item name
type Category string

const (
	Essentials  Category = "Essentials"
	Snacks      Category = "Snacks"
	Clothing    Category = "Clothing"
	Electronics Category = "Electronics"
	Health      Category = "Health"
	DiningOut   Category = "Dining Out"
	Transport   Category = "Transport"
	Utilities   Category = "Utilities"
	Other       Category = "Other"
)

type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules is checked top to bottom; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{Essentials, []string{"milk", "rice", "dal", "bread", "oil", "eggs", "vegetable", "atta", "flour", "sugar", "salt"}},
	{Snacks, []string{"chocolate", "biscuit", "lays", "snack", "chips", "cold drink", "soda", "candy", "cookies"}},
	{Clothing, []string{"shirt", "jeans", "shoe", "sandal", "dress", "trousers", "jacket", "tshirt", "socks"}},
	{Electronics, []string{"usb", "charger", "headphone", "phone", "mouse", "keyboard", "laptop", "tablet", "speaker"}},
	{Health, []string{"medicine", "pharmacy", "pill", "bandage"}},
	{DiningOut, []string{"restaurant", "cafe", "food", "dinner", "lunch", "breakfast", "pizza", "burger"}},
	{Transport, []string{"fuel", "petrol", "diesel", "gas", "transport"}},
	{Utilities, []string{"electricity", "water", "internet", "rent"}},
}

// Categories returns every category in priority order, Other last
func Categories() []Category {
	cats := make([]Category, 0, len(categoryRules)+1)
	for _, rule := range categoryRules {
		cats = append(cats, rule.category)
	}
	return append(cats, Other)
}

// Categorize maps an item name to a category by case-insensitive keyword containment.
// Names that match no keyword are Other.
func Categorize(name string) Category {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return Other
}

// Breakdown holds the summed item prices per category.
// A category with no items has no key.
type Breakdown map[Category]decimal.Decimal

// Add accumulates price under cat
func (b Breakdown) Add(cat Category, price decimal.Decimal) {
	b[cat] = b[cat].Add(price)
}

// Get returns the sum for cat, zero when absent
func (b Breakdown) Get(cat Category) decimal.Decimal {
	return b[cat]
}
