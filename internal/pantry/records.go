package pantry

import (
	"fmt"
	"strings"
	"time"

	"pantrypal/internal/services"
)

// RecordType is the sort-key family a document belongs to.
type RecordType string

const (
	RecordItem   RecordType = "PANTRY"
	RecordRecipe RecordType = "RECIPE"
)

// SameName reports whether two display names refer to the same food. Case
// and surrounding space are ignored.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// PartitionKey returns the document partition for an owner.
func PartitionKey(ownerID string) string {
	return "USER#" + ownerID
}

// SortKey returns the sort key for a record of the given type.
func SortKey(kind RecordType, id string) string {
	return string(kind) + "#" + id
}

// SortPrefix returns the prefix shared by every record of the given type.
func SortPrefix(kind RecordType) string {
	return string(kind) + "#"
}

// PantryItem is a single inventory entry owned by a user.
type PantryItem struct {
	ID                  string        `json:"id"`
	OwnerID             string        `json:"user_id"`
	ProductName         string        `json:"product_name"`
	Quantity            int           `json:"quantity"`
	UPC                 string        `json:"upc,omitempty"`
	Macros              *MacroProfile `json:"macros"`
	Cost                float64       `json:"cost"`
	ExpirationDate      *time.Time    `json:"expiration_date,omitempty"`
	EnvironmentalImpact float64       `json:"environmental_impact"`
	ImageURL            string        `json:"image_url"`
	Active              bool          `json:"active"`
}

// Validate checks user-supplied fields.
func (p PantryItem) Validate() error {
	if strings.TrimSpace(p.ProductName) == "" {
		return fmt.Errorf("%w: product_name is required", services.ErrValidation)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", services.ErrValidation)
	}
	if p.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", services.ErrValidation)
	}
	if p.EnvironmentalImpact < 0 {
		return fmt.Errorf("%w: environmental_impact must not be negative", services.ErrValidation)
	}
	if p.Macros != nil {
		if err := p.Macros.Validate(); err != nil {
			return fmt.Errorf("%w: %v", services.ErrValidation, err)
		}
	}
	return nil
}

// Ingredient is one line of a recipe. Quantity is in grams.
type Ingredient struct {
	ItemName string  `json:"item_name"`
	Quantity float64 `json:"quantity"`
	Text     string  `json:"text,omitempty"`
}

// Recipe is a user-owned recipe with an optional aggregate macro profile.
type Recipe struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"user_id"`
	Name         string        `json:"name"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions string        `json:"instructions,omitempty"`
	ImageURL     string        `json:"image_url"`
	CookTime     string        `json:"cook_time,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Servings     int           `json:"servings"`
	TotalMacros  *MacroProfile `json:"total_macros"`
	Active       bool          `json:"active"`
}

// Validate checks user-supplied fields.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", services.ErrValidation)
	}
	if r.Servings < 0 {
		return fmt.Errorf("%w: servings must not be negative", services.ErrValidation)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.ItemName) == "" {
			return fmt.Errorf("%w: ingredient %d has no item_name", services.ErrValidation, i)
		}
		if ing.Quantity < 0 {
			return fmt.Errorf("%w: ingredient %q has negative quantity", services.ErrValidation, ing.ItemName)
		}
	}
	return nil
}

// EffectiveServings returns the serving count, treating unset as one.
func (r Recipe) EffectiveServings() int {
	if r.Servings < 1 {
		return 1
	}
	return r.Servings
}
