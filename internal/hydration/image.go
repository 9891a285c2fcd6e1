package hydration

import (
	"context"
	"errors"
	"log/slog"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/objectstore"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
	"pantrypal/internal/stage"
)

// Images generates a placeholder photo and records its URL on the owning
// pantry item or recipe.
type Images struct {
	store     RecordStore
	generator ImageGenerator
	objects   ObjectStore
	logger    *slog.Logger
}

// NewImages constructs the IMAGE handler.
func NewImages(store RecordStore, generator ImageGenerator, objects ObjectStore, logger *slog.Logger) *Images {
	return &Images{
		store:     store,
		generator: generator,
		objects:   objects,
		logger:    logging.NewComponentLogger(logger, "images"),
	}
}

// Handle renders the image, uploads it under <owner>/<target>.png, and
// overwrites only the target's image URL. Jobs queued under a name the
// target no longer carries are skipped.
func (h *Images) Handle(ctx context.Context, job jobs.Job) error {
	if err := stage.RequireFields(job, jobs.TypeImage); err != nil {
		return err
	}
	logger := logging.WithContext(ctx, h.logger)
	owner, name := job.Payload.UserID, job.Payload.ItemName
	kind, targetID := job.Target()

	current, err := h.currentName(ctx, owner, kind, targetID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		logSkipped(logger, "image", "target_missing", nil)
		return nil
	case err != nil:
		return err
	case !pantry.SameName(current, name):
		logSkipped(logger, "image", "name_changed", nil)
		return nil
	}

	img, err := h.generator.Generate(ctx, name)
	if err != nil {
		return err
	}
	key := objectstore.Key(owner, targetID)
	url, err := h.objects.Put(ctx, key, img, objectstore.ContentTypePNG)
	if err != nil {
		return err
	}

	switch kind {
	case pantry.RecordRecipe:
		_, err = h.store.PatchRecipe(ctx, owner, targetID, func(r *pantry.Recipe) error {
			if !pantry.SameName(r.Name, name) {
				return errNameChanged
			}
			r.ImageURL = url
			return nil
		})
	default:
		_, err = h.store.PatchItem(ctx, owner, targetID, func(item *pantry.PantryItem) error {
			if !pantry.SameName(item.ProductName, name) {
				return errNameChanged
			}
			item.ImageURL = url
			return nil
		})
	}
	switch {
	case errors.Is(err, errNameChanged):
		// The job for the new name writes the same key after this one.
		logSkipped(logger, "image", "name_changed", nil)
		return nil
	case errors.Is(err, services.ErrNotFound):
		// Deleted while generating; its image cleanup already ran.
		h.discard(ctx, logger, key)
		logSkipped(logger, "image", "target_missing", nil)
		return nil
	case err != nil:
		return err
	}
	logApplied(logger, "image",
		logging.String("record_type", string(kind)),
		logging.String("image_url", url),
		logging.Int("image_bytes", len(img)),
	)
	return nil
}

func (h *Images) currentName(ctx context.Context, owner string, kind pantry.RecordType, id string) (string, error) {
	if kind == pantry.RecordRecipe {
		recipe, err := h.store.GetRecipe(ctx, owner, id)
		if err != nil {
			return "", err
		}
		return recipe.Name, nil
	}
	item, err := h.store.GetItem(ctx, owner, id)
	if err != nil {
		return "", err
	}
	return item.ProductName, nil
}

func (h *Images) discard(ctx context.Context, logger *slog.Logger, key string) {
	if err := h.objects.Delete(ctx, key); err != nil {
		logging.WarnWithContext(logger, "orphaned image cleanup failed", "image_cleanup_failed",
			logging.String("image_key", key),
			logging.String(logging.FieldErrorHint, "check object storage credentials"),
			logging.String(logging.FieldImpact, "orphaned image left in bucket"),
			logging.Error(err),
		)
	}
}

// HealthCheck reports whether the handler's collaborators are wired.
func (h *Images) HealthCheck(ctx context.Context) stage.Health {
	const name = "images"
	if h.store == nil || h.generator == nil || h.objects == nil {
		return stage.Unhealthy(name, "image generation or object storage not configured")
	}
	if checker, ok := h.objects.(interface{ HealthCheck(context.Context) error }); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(name, err.Error())
		}
	}
	return stage.Healthy(name)
}
