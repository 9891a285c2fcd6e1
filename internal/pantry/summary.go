package pantry

import "time"

// Summary aggregates an owner's active pantry and cookbook.
type Summary struct {
	Items               int          `json:"items"`
	HydratedItems       int          `json:"hydrated_items"`
	ItemsWithImages     int          `json:"items_with_images"`
	ExpiringSoon        int          `json:"expiring_soon"`
	Recipes             int          `json:"recipes"`
	TotalCost           float64      `json:"total_cost"`
	EnvironmentalImpact float64      `json:"environmental_impact"`
	TotalMacros         MacroProfile `json:"total_macros"`
}

// ExpiryWindow is how far ahead Summarize looks for expiring items.
const ExpiryWindow = 72 * time.Hour

// Summarize builds a Summary, ignoring inactive records.
func Summarize(items []PantryItem, recipes []Recipe, now time.Time) Summary {
	var s Summary
	for _, item := range items {
		if !item.Active {
			continue
		}
		s.Items++
		if item.Macros != nil {
			s.HydratedItems++
		}
		if item.ImageURL != "" {
			s.ItemsWithImages++
		}
		if item.ExpirationDate != nil && item.ExpirationDate.Before(now.Add(ExpiryWindow)) {
			s.ExpiringSoon++
		}
		s.TotalCost += item.Cost
		s.EnvironmentalImpact += item.EnvironmentalImpact
	}
	for _, recipe := range recipes {
		if recipe.Active {
			s.Recipes++
		}
	}
	s.TotalMacros = TotalMacros(items)
	return s
}
