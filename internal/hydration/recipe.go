package hydration

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
	"pantrypal/internal/stage"
)

const defaultIngredientConcurrency = 4

// Aggregate resolves every ingredient and returns the per-serving total.
// Each ingredient contributes its per-100 g profile scaled by
// quantity/100; the sum is divided by servings when servings > 1.
// Ingredients the lookup cannot match contribute zero and are returned in
// missing. Any other lookup error aborts the aggregate.
func Aggregate(ctx context.Context, lookup NutritionLookup, ingredients []pantry.Ingredient, servings, concurrency int) (pantry.MacroProfile, []string, error) {
	if concurrency <= 0 {
		concurrency = defaultIngredientConcurrency
	}
	contributions := make([]pantry.MacroProfile, len(ingredients))
	unmatched := make([]bool, len(ingredients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ing := range ingredients {
		name := strings.TrimSpace(ing.ItemName)
		if name == "" || ing.Quantity <= 0 {
			continue
		}
		g.Go(func() error {
			profile, err := lookup.Lookup(gctx, name)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					unmatched[i] = true
					return nil
				}
				return err
			}
			contributions[i] = profile.Per100g(ing.Quantity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pantry.MacroProfile{}, nil, err
	}

	var total pantry.MacroProfile
	var missing []string
	for i := range ingredients {
		if unmatched[i] {
			missing = append(missing, ingredients[i].ItemName)
			continue
		}
		total = total.Add(contributions[i])
	}
	if servings > 1 {
		total = total.Div(servings)
	}
	return total, missing, nil
}

// RecipeMacros computes a recipe's aggregate macro profile.
type RecipeMacros struct {
	store       RecordStore
	lookup      NutritionLookup
	concurrency int
	logger      *slog.Logger
}

// NewRecipeMacros constructs the RECIPE handler. concurrency bounds the
// number of ingredient lookups in flight.
func NewRecipeMacros(store RecordStore, lookup NutritionLookup, concurrency int, logger *slog.Logger) *RecipeMacros {
	return &RecipeMacros{
		store:       store,
		lookup:      lookup,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "recipe-macros"),
	}
}

// Handle loads the recipe's ingredients, aggregates them, and overwrites
// only the recipe's total macros.
func (h *RecipeMacros) Handle(ctx context.Context, job jobs.Job) error {
	if err := stage.RequireFields(job, jobs.TypeRecipe); err != nil {
		return err
	}
	logger := logging.WithContext(ctx, h.logger)
	owner, recipeID := job.Payload.UserID, job.Payload.RecipeID

	recipe, err := h.store.GetRecipe(ctx, owner, recipeID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logSkipped(logger, "recipe_macros", "target_missing", nil)
			return nil
		}
		return err
	}

	total, missing, err := Aggregate(ctx, h.lookup, recipe.Ingredients, recipe.Servings, h.concurrency)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		logger.Info("ingredients without nutrition data",
			logging.Int("ingredient_count", len(recipe.Ingredients)),
			logging.Any("unmatched", missing),
		)
	}

	_, err = h.store.PatchRecipe(ctx, owner, recipeID, func(r *pantry.Recipe) error {
		macros := total
		r.TotalMacros = &macros
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logSkipped(logger, "recipe_macros", "target_missing", nil)
			return nil
		}
		return err
	}
	logApplied(logger, "recipe_macros",
		logging.Int("ingredient_count", len(recipe.Ingredients)),
		logging.Int("servings", recipe.EffectiveServings()),
		logging.Float64("protein", total.Protein),
	)
	return nil
}

// HealthCheck reports whether the handler's collaborators are wired.
func (h *RecipeMacros) HealthCheck(context.Context) stage.Health {
	const name = "recipe-macros"
	if h.store == nil || h.lookup == nil {
		return stage.Unhealthy(name, "store or nutrition lookup not configured")
	}
	return stage.Healthy(name)
}
