package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"pantrypal/internal/pantry"
)

// GetItem loads an active pantry item.
func (s *Store) GetItem(ctx context.Context, owner, id string) (*pantry.PantryItem, error) {
	doc, err := s.Get(ctx, owner, pantry.RecordItem, id)
	if err != nil {
		return nil, err
	}
	return decodeItem(doc.Body, doc.Active, owner, id)
}

// PutItem writes a pantry item as an active document.
func (s *Store) PutItem(ctx context.Context, item *pantry.PantryItem) error {
	item.Active = true
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode pantry item: %w", err)
	}
	return s.Put(ctx, item.OwnerID, pantry.RecordItem, item.ID, body)
}

// ListItems returns the owner's active pantry items.
func (s *Store) ListItems(ctx context.Context, owner string) ([]pantry.PantryItem, error) {
	docs, err := s.ListByPrefix(ctx, owner, pantry.RecordItem)
	if err != nil {
		return nil, err
	}
	items := make([]pantry.PantryItem, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeItem(doc.Body, doc.Active, owner, idFromSortKey(doc.SK, pantry.RecordItem))
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// PatchItem applies mutate to an active pantry item and persists the result.
// mutate must only touch the field its caller owns.
func (s *Store) PatchItem(ctx context.Context, owner, id string, mutate func(*pantry.PantryItem) error) (*pantry.PantryItem, error) {
	var result *pantry.PantryItem
	_, err := s.Patch(ctx, owner, pantry.RecordItem, id, func(body []byte) ([]byte, error) {
		item, err := decodeItem(body, true, owner, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(item); err != nil {
			return nil, err
		}
		item.ID, item.OwnerID, item.Active = id, owner, true
		result = item
		return json.Marshal(item)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetRecipe loads an active recipe.
func (s *Store) GetRecipe(ctx context.Context, owner, id string) (*pantry.Recipe, error) {
	doc, err := s.Get(ctx, owner, pantry.RecordRecipe, id)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(doc.Body, doc.Active, owner, id)
}

// PutRecipe writes a recipe as an active document.
func (s *Store) PutRecipe(ctx context.Context, recipe *pantry.Recipe) error {
	recipe.Active = true
	body, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	return s.Put(ctx, recipe.OwnerID, pantry.RecordRecipe, recipe.ID, body)
}

// ListRecipes returns the owner's active recipes.
func (s *Store) ListRecipes(ctx context.Context, owner string) ([]pantry.Recipe, error) {
	docs, err := s.ListByPrefix(ctx, owner, pantry.RecordRecipe)
	if err != nil {
		return nil, err
	}
	recipes := make([]pantry.Recipe, 0, len(docs))
	for _, doc := range docs {
		recipe, err := decodeRecipe(doc.Body, doc.Active, owner, idFromSortKey(doc.SK, pantry.RecordRecipe))
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, nil
}

// PatchRecipe applies mutate to an active recipe and persists the result.
func (s *Store) PatchRecipe(ctx context.Context, owner, id string, mutate func(*pantry.Recipe) error) (*pantry.Recipe, error) {
	var result *pantry.Recipe
	_, err := s.Patch(ctx, owner, pantry.RecordRecipe, id, func(body []byte) ([]byte, error) {
		recipe, err := decodeRecipe(body, true, owner, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(recipe); err != nil {
			return nil, err
		}
		recipe.ID, recipe.OwnerID, recipe.Active = id, owner, true
		result = recipe
		return json.Marshal(recipe)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func decodeItem(body []byte, active bool, owner, id string) (*pantry.PantryItem, error) {
	var item pantry.PantryItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode pantry item %s: %w", id, err)
	}
	item.ID, item.OwnerID, item.Active = id, owner, active
	return &item, nil
}

func decodeRecipe(body []byte, active bool, owner, id string) (*pantry.Recipe, error) {
	var recipe pantry.Recipe
	if err := json.Unmarshal(body, &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	recipe.ID, recipe.OwnerID, recipe.Active = id, owner, active
	return &recipe, nil
}

func idFromSortKey(sk string, kind pantry.RecordType) string {
	prefix := pantry.SortPrefix(kind)
	if len(sk) >= len(prefix) && sk[:len(prefix)] == prefix {
		return sk[len(prefix):]
	}
	return sk
}
