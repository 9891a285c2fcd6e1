package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

// CreateItem persists a new pantry item and schedules its hydration. The
// returned item never carries macros or an image.
func (m *Manager) CreateItem(ctx context.Context, owner string, input pantry.PantryItem) (*pantry.PantryItem, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	item := input
	item.ProductName = strings.TrimSpace(item.ProductName)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		item.ID = m.newID()
	}
	item.OwnerID = owner
	item.Macros = nil
	item.ImageURL = ""
	if err := m.store.PutItem(ctx, &item); err != nil {
		return nil, err
	}

	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), item.ID)
	logging.WithContext(ctx, m.logger).Info("pantry item created",
		logging.String(logging.FieldEventType, "item_created"),
		logging.String("product_name", item.ProductName),
	)
	m.enqueue(ctx, m.itemJobs(owner, item.ID, item.ProductName)...)
	return &item, nil
}

// GetItem returns an active item.
func (m *Manager) GetItem(ctx context.Context, owner, id string) (*pantry.PantryItem, error) {
	return m.store.GetItem(ctx, owner, id)
}

// ListItems returns the owner's active items.
func (m *Manager) ListItems(ctx context.Context, owner string) ([]pantry.PantryItem, error) {
	return m.store.ListItems(ctx, owner)
}

// UpdateItem replaces the user-owned fields of an item. Macros and image are
// preserved unless the product name changes, in which case they are cleared
// and re-hydrated.
func (m *Manager) UpdateItem(ctx context.Context, owner, id string, input pantry.PantryItem) (*pantry.PantryItem, error) {
	input.ProductName = strings.TrimSpace(input.ProductName)
	if err := input.Validate(); err != nil {
		return nil, err
	}
	renamed := false
	updated, err := m.store.PatchItem(ctx, owner, id, func(item *pantry.PantryItem) error {
		renamed = !pantry.SameName(item.ProductName, input.ProductName)
		item.ProductName = input.ProductName
		item.Quantity = input.Quantity
		item.UPC = input.UPC
		item.Cost = input.Cost
		item.ExpirationDate = input.ExpirationDate
		item.EnvironmentalImpact = input.EnvironmentalImpact
		if renamed {
			item.Macros = nil
			item.ImageURL = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if renamed {
		ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), id)
		m.enqueue(ctx, m.itemJobs(owner, id, updated.ProductName)...)
	}
	return updated, nil
}

// DeleteItem soft-deletes an item. Its uploaded image is removed on a best
// effort basis.
func (m *Manager) DeleteItem(ctx context.Context, owner, id string) error {
	item, err := m.store.GetItem(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := m.store.SoftDelete(ctx, owner, pantry.RecordItem, id); err != nil {
		return err
	}
	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), id)
	logging.WithContext(ctx, m.logger).Info("pantry item deleted",
		logging.String(logging.FieldEventType, "item_deleted"),
	)
	m.removeImage(ctx, item.ImageURL)
	return nil
}

// RehydrateItem re-enqueues hydration for an existing item. It reports how
// many jobs the queue accepted.
func (m *Manager) RehydrateItem(ctx context.Context, owner, id string) (int, error) {
	item, err := m.store.GetItem(ctx, owner, id)
	if err != nil {
		return 0, err
	}
	ctx = services.WithRecordID(services.WithOwnerID(ctx, owner), id)
	list := m.itemJobs(owner, id, item.ProductName)
	accepted := m.enqueue(ctx, list...)
	if accepted == 0 {
		return 0, services.Wrap(services.ErrStorageUnavailable, "lifecycle", "rehydrate", "queue rejected every job", nil)
	}
	return accepted, nil
}

// TotalMacros sums the macros of the owner's hydrated items.
func (m *Manager) TotalMacros(ctx context.Context, owner string) (pantry.MacroProfile, error) {
	items, err := m.store.ListItems(ctx, owner)
	if err != nil {
		return pantry.MacroProfile{}, err
	}
	return pantry.TotalMacros(items).Round(2), nil
}

// Summary aggregates the owner's pantry and cookbook.
func (m *Manager) Summary(ctx context.Context, owner string) (pantry.Summary, error) {
	items, err := m.store.ListItems(ctx, owner)
	if err != nil {
		return pantry.Summary{}, err
	}
	recipes, err := m.store.ListRecipes(ctx, owner)
	if err != nil {
		return pantry.Summary{}, err
	}
	summary := pantry.Summarize(items, recipes, m.now())
	summary.TotalMacros = summary.TotalMacros.Round(2)
	return summary, nil
}

func (m *Manager) itemJobs(owner, id, name string) []jobs.Job {
	list := []jobs.Job{jobs.NewItemJob(owner, id, name)}
	if m.images {
		list = append(list, jobs.NewItemImageJob(owner, id, name))
	}
	return list
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: owner is required", services.ErrValidation)
	}
	return nil
}
