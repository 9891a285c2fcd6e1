package nutrition

import (
	"strings"

	"pantrypal/internal/pantry"
)

type foodNutrient struct {
	Nutrient struct {
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount float64 `json:"amount"`
}

var nutrientFields = map[string]func(*pantry.MacroProfile) *float64{
	"Protein":                           func(m *pantry.MacroProfile) *float64 { return &m.Protein },
	"Carbohydrate, by difference":       func(m *pantry.MacroProfile) *float64 { return &m.Carbohydrates },
	"Fiber, total dietary":              func(m *pantry.MacroProfile) *float64 { return &m.Fiber },
	"Sugars, total including NLEA":      func(m *pantry.MacroProfile) *float64 { return &m.Sugar },
	"Total lipid (fat)":                 func(m *pantry.MacroProfile) *float64 { return &m.Fat },
	"Fatty acids, total saturated":      func(m *pantry.MacroProfile) *float64 { return &m.SaturatedFat },
	"Fatty acids, total polyunsaturated": func(m *pantry.MacroProfile) *float64 { return &m.PolyunsaturatedFat },
	"Fatty acids, total monounsaturated": func(m *pantry.MacroProfile) *float64 { return &m.MonounsaturatedFat },
	"Fatty acids, total trans":          func(m *pantry.MacroProfile) *float64 { return &m.TransFat },
	"Cholesterol":                       func(m *pantry.MacroProfile) *float64 { return &m.Cholesterol },
	"Sodium, Na":                        func(m *pantry.MacroProfile) *float64 { return &m.Sodium },
	"Potassium, K":                      func(m *pantry.MacroProfile) *float64 { return &m.Potassium },
	"Vitamin A, RAE":                    func(m *pantry.MacroProfile) *float64 { return &m.VitaminA },
	"Vitamin C, total ascorbic acid":    func(m *pantry.MacroProfile) *float64 { return &m.VitaminC },
	"Calcium, Ca":                       func(m *pantry.MacroProfile) *float64 { return &m.Calcium },
	"Iron, Fe":                          func(m *pantry.MacroProfile) *float64 { return &m.Iron },
}

const kilojoulesPerKilocalorie = 4.184

// profileFromNutrients maps USDA nutrient rows onto a MacroProfile. Energy is
// taken in kcal, converted from kJ when that is all the food reports, with
// the legacy "Calories" row as a last resort.
func profileFromNutrients(rows []foodNutrient) pantry.MacroProfile {
	var (
		profile    pantry.MacroProfile
		kcal       float64
		kj         float64
		legacy     float64
		haveKcal   bool
		haveKJ     bool
		haveLegacy bool
	)
	for _, row := range rows {
		name := strings.TrimSpace(row.Nutrient.Name)
		if field, ok := nutrientFields[name]; ok {
			*field(&profile) = row.Amount
			continue
		}
		switch {
		case strings.HasPrefix(name, "Energy"):
			switch strings.ToLower(row.Nutrient.UnitName) {
			case "kj":
				if !haveKJ {
					kj, haveKJ = row.Amount, true
				}
			default:
				if !haveKcal {
					kcal, haveKcal = row.Amount, true
				}
			}
		case name == "Calories":
			legacy, haveLegacy = row.Amount, true
		}
	}
	switch {
	case haveKcal:
		profile.Calories = kcal
	case haveKJ:
		profile.Calories = kj / kilojoulesPerKilocalorie
	case haveLegacy:
		profile.Calories = legacy
	}
	return profile
}
