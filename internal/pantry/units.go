package pantry

import (
	"fmt"
	"sort"
	"strings"

	"pantrypal/internal/services"
)

var unitConversions = map[string]float64{
	"g":     1,
	"kg":    1000,
	"oz":    28.3495,
	"lb":    453.592,
	"ml":    1,
	"l":     1000,
	"fl_oz": 29.5735,
}

// ConvertToGrams converts quantity in unit to grams. Volume units assume
// water density.
func ConvertToGrams(quantity float64, unit string) (float64, error) {
	factor, ok := unitConversions[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported unit %q", services.ErrValidation, unit)
	}
	return quantity * factor, nil
}

// SupportedUnits lists the accepted unit names in sorted order.
func SupportedUnits() []string {
	units := make([]string, 0, len(unitConversions))
	for unit := range unitConversions {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units
}

// Category is a coarse food grouping used to filter suggestions.
type Category string

const (
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategorySeafood    Category = "seafood"
	CategoryCarbs      Category = "carbs"
	CategoryFats       Category = "fats"
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryBeverages  Category = "beverages"
	CategoryOther      Category = "other"
)

// Checked in order; the first keyword contained in the raw label wins.
var categoryKeywords = []struct {
	keyword  string
	category Category
}{
	{"dairy", CategoryDairy},
	{"egg", CategoryDairy},
	{"meat", CategoryMeat},
	{"poultry", CategoryMeat},
	{"pork", CategoryMeat},
	{"beef", CategoryMeat},
	{"fish", CategorySeafood},
	{"seafood", CategorySeafood},
	{"grain", CategoryCarbs},
	{"cereal", CategoryCarbs},
	{"bakery", CategoryCarbs},
	{"oil", CategoryFats},
	{"fat", CategoryFats},
	{"vegetable", CategoryVegetables},
	{"fruit", CategoryFruits},
	{"beverage", CategoryBeverages},
	{"drink", CategoryBeverages},
}

// MapCategory maps a free-form food category label onto a Category.
func MapCategory(raw string) Category {
	lower := strings.ToLower(raw)
	for _, entry := range categoryKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.category
		}
	}
	return CategoryOther
}

// ParseCategory validates a category name supplied by a caller.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryDairy, CategoryMeat, CategorySeafood, CategoryCarbs, CategoryFats,
		CategoryVegetables, CategoryFruits, CategoryBeverages, CategoryOther:
		return c, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", services.ErrValidation, raw)
	}
}
