package hydration

import (
	"context"
	"errors"
	"log/slog"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
	"pantrypal/internal/stage"
)

// ItemMacros fills a pantry item's macro profile from the nutrition lookup.
type ItemMacros struct {
	store  RecordStore
	lookup NutritionLookup
	logger *slog.Logger
}

// NewItemMacros constructs the ITEM handler.
func NewItemMacros(store RecordStore, lookup NutritionLookup, logger *slog.Logger) *ItemMacros {
	return &ItemMacros{
		store:  store,
		lookup: lookup,
		logger: logging.NewComponentLogger(logger, "item-macros"),
	}
}

// Handle looks up the item name and overwrites only the item's macros. A job
// queued under a name the item no longer carries writes nothing.
func (h *ItemMacros) Handle(ctx context.Context, job jobs.Job) error {
	if err := stage.RequireFields(job, jobs.TypeItem); err != nil {
		return err
	}
	logger := logging.WithContext(ctx, h.logger)
	owner, itemID, name := job.Payload.UserID, job.Payload.ItemID, job.Payload.ItemName

	profile, err := h.lookup.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logSkipped(logger, "item_macros", "no_nutrition_match", err)
			return nil
		}
		return err
	}

	_, err = h.store.PatchItem(ctx, owner, itemID, func(item *pantry.PantryItem) error {
		if !pantry.SameName(item.ProductName, name) {
			return errNameChanged
		}
		macros := profile
		item.Macros = &macros
		return nil
	})
	switch {
	case errors.Is(err, errNameChanged):
		logSkipped(logger, "item_macros", "name_changed", nil)
		return nil
	case errors.Is(err, services.ErrNotFound):
		logSkipped(logger, "item_macros", "target_missing", nil)
		return nil
	case err != nil:
		return err
	}
	logApplied(logger, "item_macros",
		logging.Float64("calories", profile.Calories),
		logging.Float64("protein", profile.Protein),
	)
	return nil
}

// HealthCheck reports whether the handler's collaborators are wired.
func (h *ItemMacros) HealthCheck(ctx context.Context) stage.Health {
	const name = "item-macros"
	if h.store == nil || h.lookup == nil {
		return stage.Unhealthy(name, "store or nutrition lookup not configured")
	}
	if checker, ok := h.lookup.(interface{ HealthCheck(context.Context) error }); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(name, err.Error())
		}
	}
	return stage.Healthy(name)
}
