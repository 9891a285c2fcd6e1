package testsupport

import (
	"context"
	"testing"

	"pantrypal/internal/config"
	"pantrypal/internal/docstore"
	"pantrypal/internal/pantry"
	"pantrypal/internal/queue"
)

// MustOpenQueue opens a queue.Store for tests and registers cleanup.
func MustOpenQueue(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenDocStore opens a docstore.Store for tests and registers cleanup.
func MustOpenDocStore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutItem stores an active pantry item for tests.
func PutItem(t testing.TB, store *docstore.Store, owner, id, name string) *pantry.PantryItem {
	t.Helper()

	item := &pantry.PantryItem{ID: id, OwnerID: owner, ProductName: name, Quantity: 1}
	if err := store.PutItem(context.Background(), item); err != nil {
		t.Fatalf("store.PutItem: %v", err)
	}
	return item
}

// PutRecipe stores an active recipe for tests.
func PutRecipe(t testing.TB, store *docstore.Store, recipe pantry.Recipe) *pantry.Recipe {
	t.Helper()

	if err := store.PutRecipe(context.Background(), &recipe); err != nil {
		t.Fatalf("store.PutRecipe: %v", err)
	}
	return &recipe
}
