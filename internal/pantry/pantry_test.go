package pantry_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecipeScalingPerServing(t *testing.T) {
	chicken := pantry.MacroProfile{Protein: 10}
	beans := pantry.MacroProfile{Protein: 20}

	total := chicken.Per100g(100).Add(beans.Per100g(200)).Div(2)
	if !approx(total.Protein, 25) {
		t.Fatalf("expected 25g protein per serving, got %v", total.Protein)
	}
}

func TestMacroProfileDivIgnoresNonPositive(t *testing.T) {
	m := pantry.MacroProfile{Calories: 100}
	if got := m.Div(0); got != m {
		t.Fatalf("Div(0) changed profile: %+v", got)
	}
	if got := m.Div(1); got != m {
		t.Fatalf("Div(1) changed profile: %+v", got)
	}
}

func TestMacroProfileIsZeroAndValidate(t *testing.T) {
	var m pantry.MacroProfile
	if !m.IsZero() {
		t.Fatal("expected zero profile")
	}
	m.Iron = 0.5
	if m.IsZero() {
		t.Fatal("expected non-zero profile")
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	m.Sodium = -1
	if err := m.Validate(); err == nil {
		t.Fatal("expected negative value to fail validation")
	}
}

func TestTotalMacrosSkipsInactiveAndUnhydrated(t *testing.T) {
	items := []pantry.PantryItem{
		{Active: true, Macros: &pantry.MacroProfile{Protein: 5, Calories: 130}},
		{Active: true, Macros: &pantry.MacroProfile{Protein: 3, Calories: 70}},
		{Active: true},
		{Active: false, Macros: &pantry.MacroProfile{Protein: 100}},
	}
	total := pantry.TotalMacros(items)
	if total.Protein != 8 || total.Calories != 200 {
		t.Fatalf("unexpected totals: %+v", total)
	}
}

func TestConvertToGrams(t *testing.T) {
	cases := []struct {
		qty  float64
		unit string
		want float64
	}{
		{2, "kg", 2000},
		{1, "OZ", 28.3495},
		{1, "lb", 453.592},
		{3, "fl_oz", 88.7205},
		{250, "ml", 250},
	}
	for _, tc := range cases {
		got, err := pantry.ConvertToGrams(tc.qty, tc.unit)
		if err != nil {
			t.Fatalf("ConvertToGrams(%v, %q): %v", tc.qty, tc.unit, err)
		}
		if !approx(got, tc.want) {
			t.Fatalf("ConvertToGrams(%v, %q) = %v, want %v", tc.qty, tc.unit, got, tc.want)
		}
	}
	if _, err := pantry.ConvertToGrams(1, "cup"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for cup, got %v", err)
	}
}

func TestMapCategory(t *testing.T) {
	cases := map[string]pantry.Category{
		"Dairy and Egg Products":     pantry.CategoryDairy,
		"Poultry Products":           pantry.CategoryMeat,
		"Finfish and Shellfish":      pantry.CategorySeafood,
		"Cereal Grains and Pasta":    pantry.CategoryCarbs,
		"Fats and Oils":              pantry.CategoryFats,
		"Vegetables and Vegetable":   pantry.CategoryVegetables,
		"Fruits and Fruit Juices":    pantry.CategoryFruits,
		"Beverages":                  pantry.CategoryBeverages,
		"Spices and Herbs":           pantry.CategoryOther,
		"":                           pantry.CategoryOther,
	}
	for raw, want := range cases {
		if got := pantry.MapCategory(raw); got != want {
			t.Fatalf("MapCategory(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := pantry.ParseCategory(" Fruits "); err != nil || c != pantry.CategoryFruits {
		t.Fatalf("unexpected parse result %q, %v", c, err)
	}
	if c, err := pantry.ParseCategory(""); err != nil || c != "" {
		t.Fatalf("expected empty category to pass through, got %q, %v", c, err)
	}
	if _, err := pantry.ParseCategory("snacks"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPantryItemValidate(t *testing.T) {
	if err := (pantry.PantryItem{ProductName: "Rice", Quantity: 1}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (pantry.PantryItem{ProductName: "  "}).Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if err := (pantry.PantryItem{ProductName: "Rice", Cost: -1}).Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative cost, got %v", err)
	}
}

func TestRecipeValidateAndServings(t *testing.T) {
	r := pantry.Recipe{Name: "Stew", Ingredients: []pantry.Ingredient{{ItemName: "beef", Quantity: 200}}}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.EffectiveServings() != 1 {
		t.Fatalf("expected default servings of 1, got %d", r.EffectiveServings())
	}
	r.Ingredients = append(r.Ingredients, pantry.Ingredient{Quantity: 10})
	if err := r.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for nameless ingredient, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	soon := now.Add(24 * time.Hour)
	later := now.Add(30 * 24 * time.Hour)
	items := []pantry.PantryItem{
		{Active: true, Cost: 2.5, EnvironmentalImpact: 1, ExpirationDate: &soon, Macros: &pantry.MacroProfile{Protein: 5}},
		{Active: true, Cost: 1.5, ExpirationDate: &later, ImageURL: "https://example/x.png"},
		{Active: false, Cost: 100},
	}
	recipes := []pantry.Recipe{{Active: true}, {Active: false}}

	s := pantry.Summarize(items, recipes, now)
	if s.Items != 2 || s.HydratedItems != 1 || s.ItemsWithImages != 1 || s.ExpiringSoon != 1 || s.Recipes != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if !approx(s.TotalCost, 4) || !approx(s.EnvironmentalImpact, 1) {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.TotalMacros.Protein != 5 {
		t.Fatalf("unexpected macro totals: %+v", s.TotalMacros)
	}
}

func TestKeys(t *testing.T) {
	if got := pantry.PartitionKey("u1"); got != "USER#u1" {
		t.Fatalf("unexpected partition key %q", got)
	}
	if got := pantry.SortKey(pantry.RecordItem, "i1"); got != "PANTRY#i1" {
		t.Fatalf("unexpected item sort key %q", got)
	}
	if got := pantry.SortKey(pantry.RecordRecipe, "r1"); got != "RECIPE#r1" {
		t.Fatalf("unexpected recipe sort key %q", got)
	}
}
