package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
	"github.com/hammamikhairi/grocery/internal/storage"
)

var sections = []string{"Produce", "Dairy & Eggs", "Other"}

// fakeConsolidator turns every line into its own ingredient, or fails.
type fakeConsolidator struct {
	calls int
	last  []domain.RawIngredientLine
	err   error
}

func (f *fakeConsolidator) Consolidate(_ context.Context, lines []domain.RawIngredientLine, _ []string) ([]domain.NormalizedIngredient, error) {
	f.calls++
	f.last = append([]domain.RawIngredientLine(nil), lines...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.NormalizedIngredient, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.NormalizedIngredient{
			Name:     l.Text,
			Quantity: "1",
			Section:  "Other",
			Sources:  []string{l.Text},
		})
	}
	return out, nil
}

// answerAll confirms every unknown ingredient with the same answer.
type answerAll struct {
	answer domain.Confirmation
	err    error
	asked  int
}

func (a *answerAll) Confirm(_ context.Context, ings []domain.NormalizedIngredient, pantry map[string]bool) error {
	for i := range ings {
		if ings[i].ConfirmedHave != domain.ConfirmUnknown {
			continue
		}
		if pantry[domain.NormalizeName(ings[i].Name)] {
			ings[i].ConfirmedHave = domain.ConfirmHave
			continue
		}
		if a.err != nil {
			return a.err
		}
		a.asked++
		ings[i].ConfirmedHave = a.answer
	}
	return nil
}

var fixedNow = time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)

func setupEngine(t *testing.T, staples ...domain.NamedItem) (*Engine, *storage.MemoryStore, *fakeConsolidator, context.Context) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	cons := &fakeConsolidator{}
	eng := New(store, cons, storage.NewMemoryListStore(staples...), log,
		WithSections(sections),
		WithClock(func() time.Time { return fixedNow }),
	)
	return eng, store, cons, context.Background()
}

func recipe(title string, lines ...string) domain.RecipeEntry {
	return domain.RecipeEntry{Title: title, URL: "https://example.com/" + title, IngredientLines: lines, Scale: 1}
}

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "2024-03-09-session"},
		{"Taco Night", "2024-03-09-taco-night"},
		{"BBQ & Friends!", "2024-03-09-bbq--friends"},
		{"  ", "2024-03-09-session"},
		{"!!!", "2024-03-09-session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateID(fixedNow, tt.name); got != tt.want {
				t.Errorf("generateID(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	eng, store, cons, ctx := setupEngine(t,
		domain.NamedItem{Name: "milk", Quantity: "1 gallon"},
		domain.NamedItem{Name: "bananas"},
	)

	s, err := eng.New(ctx, "Weekly Shop")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.ID != "2024-03-09-weekly-shop" {
		t.Errorf("id = %q", s.ID)
	}
	if s.State() != domain.SessionAccumulating {
		t.Errorf("state = %s, want in progress (staples seeded)", s.State())
	}
	want := []domain.RawIngredientLine{
		{Text: "1 gallon milk", SourceLabel: domain.LabelStaple},
		{Text: "bananas", SourceLabel: domain.LabelStaple},
	}
	if diff := cmp.Diff(want, s.ExtraItems); diff != "" {
		t.Errorf("extra items mismatch (-want +got):\n%s", diff)
	}
	if cons.calls != 0 {
		t.Errorf("new must not consolidate, got %d calls", cons.calls)
	}

	id, err := store.CurrentID(ctx)
	if err != nil || id != s.ID {
		t.Fatalf("current = %q, %v; want %q", id, err, s.ID)
	}
	cur, err := eng.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if diff := cmp.Diff(s, cur); diff != "" {
		t.Errorf("current session mismatch (-want +got):\n%s", diff)
	}
}

func TestCurrentWithoutPointer(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	_, err := eng.Current(ctx)
	if !errors.Is(err, domain.ErrNoActiveSession) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	if _, err := eng.Load(ctx, "2020-01-01-nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := eng.Open(ctx, "2020-01-01-nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from open, got %v", err)
	}
}

func TestAddItemEggs(t *testing.T) {
	eng, store, cons, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")

	if err := eng.AddItem(ctx, s, "eggs", "1 dozen"); err != nil {
		t.Fatalf("add item: %v", err)
	}

	want := domain.RawIngredientLine{Text: "1 dozen eggs", SourceLabel: domain.LabelManual}
	if len(s.ExtraItems) != 1 || s.ExtraItems[0] != want {
		t.Fatalf("extra items = %+v, want [%+v]", s.ExtraItems, want)
	}
	if cons.calls != 1 {
		t.Fatalf("expected one consolidation, got %d", cons.calls)
	}
	if len(s.ProcessedIngredients) != 1 {
		t.Fatalf("processed = %+v", s.ProcessedIngredients)
	}

	saved, _ := store.Load(ctx, s.ID)
	if len(saved.ProcessedIngredients) != 1 || len(saved.ExtraItems) != 1 {
		t.Errorf("persisted session is stale: %+v", saved)
	}
}

func TestAddItemRejectsEmptyName(t *testing.T) {
	eng, _, cons, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")
	if err := eng.AddItem(ctx, s, "  ", "2"); err == nil {
		t.Fatal("expected error for empty name")
	}
	if cons.calls != 0 {
		t.Errorf("no consolidation expected, got %d", cons.calls)
	}
}

func TestRemoveLastClearsWithoutModelCall(t *testing.T) {
	eng, _, cons, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")

	if err := eng.AddRecipes(ctx, s, recipe("soup", "1 onion")); err != nil {
		t.Fatalf("add recipe: %v", err)
	}
	if err := eng.AddItem(ctx, s, "bread", ""); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := eng.RemoveRecipe(ctx, s, 0); err != nil {
		t.Fatalf("remove recipe: %v", err)
	}
	before := cons.calls

	removed, err := eng.RemoveItem(ctx, s, 0)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if removed.Text != "bread" {
		t.Errorf("removed %q, want bread", removed.Text)
	}
	if cons.calls != before {
		t.Errorf("consolidator called for an empty session")
	}
	if s.ProcessedIngredients == nil || len(s.ProcessedIngredients) != 0 {
		t.Errorf("processed = %#v, want empty slice", s.ProcessedIngredients)
	}
	if s.State() != domain.SessionNew {
		t.Errorf("state = %s, want new", s.State())
	}
}

func TestRemoveOutOfRange(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")

	_, err := eng.RemoveRecipe(ctx, s, 0)
	if !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	var ie *domain.IndexError
	if !errors.As(err, &ie) || ie.Len != 0 {
		t.Fatalf("expected *IndexError with Len 0, got %v", err)
	}
	if _, err := eng.RemoveItem(ctx, s, -1); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestScaleMarker(t *testing.T) {
	eng, _, cons, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")

	doubled := recipe("pasta", "200g spaghetti")
	doubled.Scale = 2
	if err := eng.AddRecipes(ctx, s, doubled, recipe("salad", "1 cucumber")); err != nil {
		t.Fatalf("add recipes: %v", err)
	}

	texts := []string{cons.last[0].Text, cons.last[1].Text}
	want := []string{"[scale x2] 200g spaghetti", "1 cucumber"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("lines sent (-want +got):\n%s", diff)
	}

	if err := eng.SetScale(ctx, s, 1, 1.5); err != nil {
		t.Fatalf("set scale: %v", err)
	}
	if cons.last[1].Text != "[scale x1.5] 1 cucumber" {
		t.Errorf("scaled line = %q", cons.last[1].Text)
	}
	if err := eng.SetScale(ctx, s, 0, 0); err == nil {
		t.Error("expected error for zero scale")
	}
}

func TestProcessingErrorKeepsRecipe(t *testing.T) {
	eng, store, cons, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")
	if err := eng.AddItem(ctx, s, "salt", ""); err != nil {
		t.Fatalf("add item: %v", err)
	}
	stale := s.ProcessedIngredients

	cons.err = &domain.ProcessingError{Raw: "nope", Err: errors.New("no JSON array")}
	err := eng.AddRecipes(ctx, s, recipe("stew", "1kg beef"))

	var perr *domain.ProcessingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProcessingError, got %v", err)
	}
	saved, _ := store.Load(ctx, s.ID)
	if len(saved.Recipes) != 1 {
		t.Fatalf("recipe not persisted after processing failure")
	}
	if diff := cmp.Diff(stale, saved.ProcessedIngredients); diff != "" {
		t.Errorf("processed ingredients should be stale (-want +got):\n%s", diff)
	}

	cons.err = nil
	if err := eng.Reprocess(ctx, s); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(s.ProcessedIngredients) != 2 {
		t.Errorf("retry produced %d ingredients, want 2", len(s.ProcessedIngredients))
	}
}

func TestReprocessCacheMatchesRecompute(t *testing.T) {
	eng, _, cons, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")
	if err := eng.AddItem(ctx, s, "milk", "1L"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	s.ProcessedIngredients[0].ConfirmedHave = domain.ConfirmHave

	if err := eng.Reprocess(ctx, s); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if cons.calls != 1 {
		t.Errorf("identical request should not reach the model, got %d calls", cons.calls)
	}
	if s.ProcessedIngredients[0].ConfirmedHave != domain.ConfirmUnknown {
		t.Error("reprocessing must reset confirmations like a fresh consolidation")
	}
}

func TestFinalize(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")

	if err := eng.Finalize(ctx, s, "/tmp/x.txt"); !errors.Is(err, domain.ErrNoIngredients) {
		t.Fatalf("expected ErrNoIngredients, got %v", err)
	}

	_ = eng.AddItem(ctx, s, "rice", "1kg")
	if err := eng.Finalize(ctx, s, "/tmp/x.txt"); !errors.Is(err, domain.ErrUnconfirmed) {
		t.Fatalf("expected ErrUnconfirmed, got %v", err)
	}

	s.ProcessedIngredients[0].ConfirmedHave = domain.ConfirmNeedToBuy
	if err := eng.Finalize(ctx, s, "/tmp/x.txt"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !s.Finalized || s.OutputPath != "/tmp/x.txt" || s.State() != domain.SessionFinalized {
		t.Errorf("unexpected session after finalize: %+v", s)
	}

	if err := eng.AddItem(ctx, s, "beans", ""); !errors.Is(err, domain.ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
}

func TestDone(t *testing.T) {
	eng, store, _, ctx := setupEngine(t)
	dir := t.TempDir()
	s, _ := eng.New(ctx, "party")
	_ = eng.AddItem(ctx, s, "salt", "")
	_ = eng.AddItem(ctx, s, "limes", "6")

	res, err := eng.Done(ctx, s, &answerAll{answer: domain.ConfirmNeedToBuy}, map[string]bool{"salt": true}, dir)
	if err != nil {
		t.Fatalf("done: %v", err)
	}

	wantPath := filepath.Join(dir, "2024-03-09-party.txt")
	if res.Path != wantPath {
		t.Errorf("path = %q, want %q", res.Path, wantPath)
	}
	want := "Other\n-----\n[ ] 1 6 limes"
	if res.Checklist != want {
		t.Errorf("checklist = %q, want %q", res.Checklist, want)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil || string(data) != want {
		t.Fatalf("file = %q, %v", data, err)
	}

	saved, _ := store.Load(ctx, s.ID)
	if !saved.Finalized || saved.OutputPath != wantPath {
		t.Errorf("session not finalized: %+v", saved)
	}
	if saved.ProcessedIngredients[0].ConfirmedHave != domain.ConfirmHave {
		t.Error("pantry item should be confirmed as owned")
	}
}

func TestDoneWithoutIngredients(t *testing.T) {
	eng, _, _, ctx := setupEngine(t)
	s, _ := eng.New(ctx, "")
	c := &answerAll{answer: domain.ConfirmHave}

	if _, err := eng.Done(ctx, s, c, nil, t.TempDir()); !errors.Is(err, domain.ErrNoIngredients) {
		t.Fatalf("expected ErrNoIngredients, got %v", err)
	}
	if c.asked != 0 {
		t.Error("no questions expected")
	}
}

func TestDoneKeepsAnswersOnAbort(t *testing.T) {
	eng, store, _, ctx := setupEngine(t)
	var written bool
	eng.write = func(string, []byte) error { written = true; return nil }

	s, _ := eng.New(ctx, "")
	_ = eng.AddItem(ctx, s, "salt", "")
	_ = eng.AddItem(ctx, s, "flour", "1kg")

	_, err := eng.Done(ctx, s, &answerAll{err: context.Canceled}, map[string]bool{"salt": true}, "/nowhere")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if written {
		t.Error("checklist must not be written after an aborted check")
	}
	saved, _ := store.Load(ctx, s.ID)
	if saved.Finalized {
		t.Error("session must not be finalized")
	}
	if saved.ProcessedIngredients[0].ConfirmedHave != domain.ConfirmHave {
		t.Error("answers before the abort must be persisted")
	}
}

func TestOpenReopensFinalized(t *testing.T) {
	eng, store, _, ctx := setupEngine(t)
	first, _ := eng.New(ctx, "first")
	_ = eng.AddItem(ctx, first, "tea", "")
	first.ProcessedIngredients[0].ConfirmedHave = domain.ConfirmHave
	if err := eng.Finalize(ctx, first, "out.txt"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := eng.New(ctx, "second"); err != nil {
		t.Fatalf("new: %v", err)
	}

	opened, err := eng.Open(ctx, first.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.Finalized {
		t.Error("open must clear finalized")
	}
	if len(opened.ProcessedIngredients) != 1 || opened.ProcessedIngredients[0].ConfirmedHave != domain.ConfirmHave {
		t.Errorf("open must keep processed ingredients and confirmations: %+v", opened.ProcessedIngredients)
	}
	if id, _ := store.CurrentID(ctx); id != first.ID {
		t.Errorf("current = %q, want %q", id, first.ID)
	}
}

func TestListAndDelete(t *testing.T) {
	eng, store, _, ctx := setupEngine(t)
	b, _ := eng.New(ctx, "b")
	a, _ := eng.New(ctx, "a")

	list, err := eng.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != a.ID+","+b.ID {
		t.Errorf("ids = %v, want sorted", ids)
	}

	if err := eng.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.CurrentID(ctx); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Errorf("pointer should be cleared, got %v", err)
	}
	if err := eng.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete non-current: %v", err)
	}
	if err := eng.Delete(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestOpenAndDeleteIgnoreReservedFiles(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store, err := storage.NewFileStore(t.TempDir(), log)
	if err != nil {
		t.Fatal(err)
	}
	eng := New(store, &fakeConsolidator{}, storage.NewMemoryListStore(), log,
		WithSections(sections),
		WithClock(func() time.Time { return fixedNow }),
	)
	ctx := context.Background()

	s, err := eng.New(ctx, "tacos")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := eng.AddRecipes(ctx, s, recipe("Tacos", "tortillas", "beef")); err != nil {
		t.Fatalf("add recipes: %v", err)
	}

	for _, id := range []string{"current", "staples", "pantry"} {
		if _, err := eng.Open(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("open %q: expected ErrNotFound, got %v", id, err)
		}
		if err := eng.Delete(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete %q: expected ErrNotFound, got %v", id, err)
		}
	}

	current, err := eng.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != s.ID {
		t.Errorf("current = %q, want %q", current.ID, s.ID)
	}
	if len(current.Recipes) != 1 || len(current.ProcessedIngredients) != 2 {
		t.Errorf("session was modified: %d recipes, %d ingredients", len(current.Recipes), len(current.ProcessedIngredients))
	}
}
