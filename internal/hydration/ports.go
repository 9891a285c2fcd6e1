package hydration

import (
	"context"

	"pantrypal/internal/pantry"
)

// NutritionLookup resolves a food name to its per-100 g nutrient profile.
// It reports services.ErrNotFound when nothing matches.
type NutritionLookup interface {
	Lookup(ctx context.Context, name string) (pantry.MacroProfile, error)
}

// ImageGenerator renders a photo for a subject name.
type ImageGenerator interface {
	Generate(ctx context.Context, name string) ([]byte, error)
}

// ObjectStore persists image bytes and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// RecordStore is the slice of the document store the handlers need. Patch
// calls must fail with services.ErrNotFound for missing or inactive records.
type RecordStore interface {
	GetItem(ctx context.Context, owner, id string) (*pantry.PantryItem, error)
	GetRecipe(ctx context.Context, owner, id string) (*pantry.Recipe, error)
	PatchItem(ctx context.Context, owner, id string, mutate func(*pantry.PantryItem) error) (*pantry.PantryItem, error)
	PatchRecipe(ctx context.Context, owner, id string, mutate func(*pantry.Recipe) error) (*pantry.Recipe, error)
}
