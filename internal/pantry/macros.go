package pantry

import (
	"fmt"
	"math"
)

// MacroProfile holds nutrient amounts for a food. Values from the nutrition
// service are per 100 g; aggregates carry whatever basis the caller scaled to.
type MacroProfile struct {
	Calories           float64 `json:"calories"`
	Protein            float64 `json:"protein"`
	Carbohydrates      float64 `json:"carbohydrates"`
	Fiber              float64 `json:"fiber"`
	Sugar              float64 `json:"sugar"`
	Fat                float64 `json:"fat"`
	SaturatedFat       float64 `json:"saturated_fat"`
	PolyunsaturatedFat float64 `json:"polyunsaturated_fat"`
	MonounsaturatedFat float64 `json:"monounsaturated_fat"`
	TransFat           float64 `json:"trans_fat"`
	Cholesterol        float64 `json:"cholesterol"`
	Sodium             float64 `json:"sodium"`
	Potassium          float64 `json:"potassium"`
	VitaminA           float64 `json:"vitamin_a"`
	VitaminC           float64 `json:"vitamin_c"`
	Calcium            float64 `json:"calcium"`
	Iron               float64 `json:"iron"`
}

const macroFieldCount = 17

func (m MacroProfile) values() [macroFieldCount]float64 {
	return [macroFieldCount]float64{
		m.Calories, m.Protein, m.Carbohydrates, m.Fiber, m.Sugar, m.Fat,
		m.SaturatedFat, m.PolyunsaturatedFat, m.MonounsaturatedFat, m.TransFat,
		m.Cholesterol, m.Sodium, m.Potassium, m.VitaminA, m.VitaminC,
		m.Calcium, m.Iron,
	}
}

func fromValues(v [macroFieldCount]float64) MacroProfile {
	return MacroProfile{
		Calories:           v[0],
		Protein:            v[1],
		Carbohydrates:      v[2],
		Fiber:              v[3],
		Sugar:              v[4],
		Fat:                v[5],
		SaturatedFat:       v[6],
		PolyunsaturatedFat: v[7],
		MonounsaturatedFat: v[8],
		TransFat:           v[9],
		Cholesterol:        v[10],
		Sodium:             v[11],
		Potassium:          v[12],
		VitaminA:           v[13],
		VitaminC:           v[14],
		Calcium:            v[15],
		Iron:               v[16],
	}
}

func (m MacroProfile) apply(fn func(float64) float64) MacroProfile {
	v := m.values()
	for i := range v {
		v[i] = fn(v[i])
	}
	return fromValues(v)
}

// Add returns the field-wise sum of m and other.
func (m MacroProfile) Add(other MacroProfile) MacroProfile {
	a, b := m.values(), other.values()
	for i := range a {
		a[i] += b[i]
	}
	return fromValues(a)
}

// Scale multiplies every nutrient by factor.
func (m MacroProfile) Scale(factor float64) MacroProfile {
	return m.apply(func(v float64) float64 { return v * factor })
}

// Div divides every nutrient by n. A non-positive n returns m unchanged.
func (m MacroProfile) Div(n int) MacroProfile {
	if n <= 0 {
		return m
	}
	d := float64(n)
	return m.apply(func(v float64) float64 { return v / d })
}

// Per100g scales a per-100 g profile to the given gram weight.
func (m MacroProfile) Per100g(grams float64) MacroProfile {
	return m.Scale(grams / 100)
}

// IsZero reports whether every nutrient is zero.
func (m MacroProfile) IsZero() bool {
	for _, v := range m.values() {
		if v != 0 {
			return false
		}
	}
	return true
}

// Validate rejects negative or non-finite values.
func (m MacroProfile) Validate() error {
	for i, v := range m.values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("macro field %d has invalid value %v", i, v)
		}
	}
	return nil
}

// Round returns m with every value rounded to the given number of decimals.
func (m MacroProfile) Round(decimals int) MacroProfile {
	p := math.Pow(10, float64(decimals))
	return m.apply(func(v float64) float64 { return math.Round(v*p) / p })
}

// TotalMacros sums the macro profiles of active, hydrated items.
func TotalMacros(items []PantryItem) MacroProfile {
	var total MacroProfile
	for _, item := range items {
		if !item.Active || item.Macros == nil {
			continue
		}
		total = total.Add(*item.Macros)
	}
	return total
}
