package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

func TestMemoryStoreCRUD(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemoryStore(log)
	ctx := context.Background()

	session := &domain.Session{
		Version:   domain.SessionVersion,
		ID:        "2026-01-02-test",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Recipes:   []domain.RecipeEntry{{Title: "Soup", URL: "https://x", IngredientLines: []string{"1 onion"}, Scale: 1}},
	}

	// Save.
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	session.Recipes = nil

	// Load.
	loaded, err := store.Load(ctx, "2026-01-02-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Recipes) != 1 {
		t.Fatalf("expected stored copy to keep 1 recipe, got %d", len(loaded.Recipes))
	}

	// Load nonexistent.
	_, err = store.Load(ctx, "nonexistent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// List.
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 session, got %d", len(all))
	}

	// Delete.
	if err := store.Delete(ctx, "2026-01-02-test"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "2026-01-02-test"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Delete nonexistent.
	if err := store.Delete(ctx, "nonexistent"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStorePointer(t *testing.T) {
	store := NewMemoryStore(logger.Nop())
	ctx := context.Background()

	if _, err := store.CurrentID(ctx); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if err := store.SetCurrent(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if id, _ := store.CurrentID(ctx); id != "a" {
		t.Fatalf("expected current a, got %q", id)
	}
	store.ClearCurrent(ctx)
	if _, err := store.CurrentID(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
}

func TestMemoryListStoreDedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryListStore(domain.NamedItem{Name: "salt"}, domain.NamedItem{Name: "salt", Quantity: "1 box"})

	items, _ := s.Items(ctx)
	if len(items) != 1 || items[0].Quantity != "" {
		t.Fatalf("expected first salt to win, got %+v", items)
	}
	if removed, _ := s.Remove(ctx, "pepper"); removed {
		t.Fatal("removing an absent item reported a change")
	}
	if removed, _ := s.Remove(ctx, "salt"); !removed {
		t.Fatal("expected salt to be removed")
	}
}
