package lifecycle

import (
	"context"
	"slices"
	"strings"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

// CreateRecipe persists a new recipe and schedules its macro aggregation
// (and image when enabled).
func (m *Manager) CreateRecipe(ctx context.Context, owner string, input pantry.Recipe) (*pantry.Recipe, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	recipe := input
	recipe.Name = strings.TrimSpace(recipe.Name)
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	recipe.ID = strings.TrimSpace(recipe.ID)
	if recipe.ID == "" {
		recipe.ID = m.newID()
	}
	recipe.OwnerID = owner
	recipe.TotalMacros = nil
	recipe.ImageURL = ""
	if err := m.store.PutRecipe(ctx, &recipe); err != nil {
		return nil, err
	}

	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), recipe.ID)
	logging.WithContext(ctx, m.logger).Info("recipe created",
		logging.String(logging.FieldEventType, "recipe_created"),
		logging.Int("ingredients", len(recipe.Ingredients)),
	)
	m.enqueue(ctx, m.recipeJobs(owner, recipe.ID, recipe.Name, true)...)
	return &recipe, nil
}

// GetRecipe returns an active recipe.
func (m *Manager) GetRecipe(ctx context.Context, owner, id string) (*pantry.Recipe, error) {
	return m.store.GetRecipe(ctx, owner, id)
}

// ListRecipes returns the owner's active recipes.
func (m *Manager) ListRecipes(ctx context.Context, owner string) ([]pantry.Recipe, error) {
	return m.store.ListRecipes(ctx, owner)
}

// UpdateRecipe replaces the user-owned fields of a recipe. Changed
// ingredients or servings re-run aggregation; a rename also replaces the
// image.
func (m *Manager) UpdateRecipe(ctx context.Context, owner, id string, input pantry.Recipe) (*pantry.Recipe, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var renamed, reaggregate bool
	updated, err := m.store.PatchRecipe(ctx, owner, id, func(recipe *pantry.Recipe) error {
		renamed = !pantry.SameName(recipe.Name, input.Name)
		reaggregate = recipe.EffectiveServings() != input.EffectiveServings() ||
			!slices.Equal(recipe.Ingredients, input.Ingredients)
		recipe.Name = input.Name
		recipe.Ingredients = input.Ingredients
		recipe.Instructions = input.Instructions
		recipe.CookTime = input.CookTime
		recipe.Tags = input.Tags
		recipe.Servings = input.Servings
		if renamed {
			recipe.ImageURL = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), id)
	var list []jobs.Job
	if reaggregate {
		list = append(list, jobs.NewRecipeJob(owner, id))
	}
	if renamed && m.images {
		list = append(list, jobs.NewRecipeImageJob(owner, id, updated.Name))
	}
	m.enqueue(ctx, list...)
	return updated, nil
}

// DeleteRecipe soft-deletes a recipe.
func (m *Manager) DeleteRecipe(ctx context.Context, owner, id string) error {
	recipe, err := m.store.GetRecipe(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := m.store.SoftDelete(ctx, owner, pantry.RecordRecipe, id); err != nil {
		return err
	}
	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), id)
	logging.WithContext(ctx, m.logger).Info("recipe deleted",
		logging.String(logging.FieldEventType, "recipe_deleted"),
	)
	m.removeImage(ctx, recipe.ImageURL)
	return nil
}

// RehydrateRecipe re-enqueues aggregation (and image when enabled and
// missing) for an existing recipe.
func (m *Manager) RehydrateRecipe(ctx context.Context, owner, id string) (int, error) {
	recipe, err := m.store.GetRecipe(ctx, owner, id)
	if err != nil {
		return 0, err
	}
	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), id)
	accepted := m.enqueue(ctx, m.recipeJobs(owner, id, recipe.Name, recipe.ImageURL == "")...)
	if accepted == 0 {
		return 0, services.Wrap(services.ErrStorageUnavailable, "lifecycle", "rehydrate", "queue rejected every job", nil)
	}
	return accepted, nil
}

func (m *Manager) recipeJobs(owner, id, name string, withImage bool) []jobs.Job {
	list := []jobs.Job{jobs.NewRecipeJob(owner, id)}
	if m.images && withImage {
		list = append(list, jobs.NewRecipeImageJob(owner, id, name))
	}
	return list
}
