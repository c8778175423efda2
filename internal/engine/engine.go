// Package engine implements the grocery session state machine: it
// accumulates recipes and manual items, re-consolidates on every
// change, and finalizes a session into a checklist file.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/format"
	"github.com/hammamikhairi/grocery/internal/logger"
	"github.com/hammamikhairi/grocery/internal/storage"
)

// Confirmer resolves every unknown confirmation in place.
type Confirmer interface {
	Confirm(ctx context.Context, ingredients []domain.NormalizedIngredient, pantry map[string]bool) error
}

// Option configures the engine.
type Option func(*Engine)

// WithSections sets the enumerated store sections.
func WithSections(sections []string) Option {
	return func(e *Engine) {
		if len(sections) > 0 {
			e.sections = append([]string(nil), sections...)
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine manages grocery sessions. It depends only on interfaces and is
// fully testable with fakes.
type Engine struct {
	store        domain.SessionStore
	consolidator domain.Consolidator
	staples      domain.ListStore
	sections     []string
	log          *logger.Logger
	now          func() time.Time

	mu sync.Mutex
	// last consolidation per session, keyed by request hash.
	processed map[string]cacheEntry
}

type cacheEntry struct {
	key         string
	ingredients []domain.NormalizedIngredient
}

// New creates an engine with the given dependencies and options.
// staples may be nil when no staples list is configured.
func New(store domain.SessionStore, consolidator domain.Consolidator, staples domain.ListStore, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		consolidator: consolidator,
		staples:      staples,
		sections:     []string{domain.CatchAllSection},
		log:          log.Named("engine"),
		now:          time.Now,
		processed:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ── Lifecycle ────────────────────────────────────────────────────

// New starts a session, seeds it with the current staples and makes it
// current. A session created the same day with the same name replaces
// the earlier one.
func (e *Engine) New(ctx context.Context, name string) (*domain.Session, error) {
	now := e.now().UTC()
	session := &domain.Session{
		Version:              domain.SessionVersion,
		ID:                   generateID(now, name),
		Name:                 strings.TrimSpace(name),
		CreatedAt:            now,
		UpdatedAt:            now,
		Recipes:              []domain.RecipeEntry{},
		ExtraItems:           []domain.RawIngredientLine{},
		ProcessedIngredients: []domain.NormalizedIngredient{},
	}

	if _, err := e.store.Load(ctx, session.ID); err == nil {
		e.log.Warn("session %s already exists and will be replaced", session.ID)
	}

	if e.staples != nil {
		staples, err := e.staples.Items(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading staples: %w", err)
		}
		for _, st := range staples {
			session.ExtraItems = append(session.ExtraItems, domain.RawIngredientLine{
				Text:        st.Line(),
				SourceLabel: domain.LabelStaple,
			})
		}
	}

	if err := e.save(ctx, session); err != nil {
		return nil, err
	}
	if err := e.store.SetCurrent(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("setting current session: %w", err)
	}
	e.forget(session.ID)

	e.log.Info("started session %s (%d staples)", session.ID, len(session.ExtraItems))
	return session, nil
}

// Current loads the session the pointer names.
func (e *Engine) Current(ctx context.Context) (*domain.Session, error) {
	id, err := e.store.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	return e.Load(ctx, id)
}

// Load returns a session by ID.
func (e *Engine) Load(ctx context.Context, id string) (*domain.Session, error) {
	session, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return session, nil
}

// Open reopens a session and makes it current. Processed ingredients
// and their confirmations are kept.
func (e *Engine) Open(ctx context.Context, id string) (*domain.Session, error) {
	session, err := e.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Finalized = false
	if err := e.save(ctx, session); err != nil {
		return nil, err
	}
	if err := e.store.SetCurrent(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("setting current session: %w", err)
	}
	e.log.Info("opened session %s", session.ID)
	return session, nil
}

// List returns every readable session ordered by ID.
func (e *Engine) List(ctx context.Context) ([]*domain.Session, error) {
	sessions, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

// Delete removes a session. The pointer is cleared when it named it.
func (e *Engine) Delete(ctx context.Context, id string) error {
	current, err := e.store.CurrentID(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("reading current session: %w", err)
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if current == id {
		if err := e.store.ClearCurrent(ctx); err != nil {
			return fmt.Errorf("clearing current session: %w", err)
		}
	}
	e.forget(id)
	e.log.Info("deleted session %s", id)
	return nil
}

// ── Mutations ────────────────────────────────────────────────────
//
// Every mutation is persisted before consolidation runs, so a model
// failure never loses the user's edit. The returned error then wraps the
// consolidation failure and ProcessedIngredients is left as it was.

// AddRecipes appends scraped recipes and reprocesses.
func (e *Engine) AddRecipes(ctx context.Context, session *domain.Session, recipes ...domain.RecipeEntry) error {
	if err := checkEditable(session); err != nil {
		return err
	}
	for _, r := range recipes {
		if r.Scale <= 0 {
			r.Scale = 1
		}
		session.Recipes = append(session.Recipes, r)
		e.log.Info("session %s: added recipe %q (%d lines)", session.ID, r.Title, len(r.IngredientLines))
	}
	return e.mutated(ctx, session)
}

// RemoveRecipe deletes the recipe at index and reprocesses.
func (e *Engine) RemoveRecipe(ctx context.Context, session *domain.Session, index int) (domain.RecipeEntry, error) {
	if err := checkEditable(session); err != nil {
		return domain.RecipeEntry{}, err
	}
	if index < 0 || index >= len(session.Recipes) {
		return domain.RecipeEntry{}, &domain.IndexError{Index: index, Len: len(session.Recipes)}
	}
	removed := session.Recipes[index]
	session.Recipes = append(session.Recipes[:index], session.Recipes[index+1:]...)
	e.log.Info("session %s: removed recipe %q", session.ID, removed.Title)
	return removed, e.mutated(ctx, session)
}

// AddItem appends a manual item and reprocesses.
func (e *Engine) AddItem(ctx context.Context, session *domain.Session, name, quantity string) error {
	if err := checkEditable(session); err != nil {
		return err
	}
	item := domain.NamedItem{Name: strings.TrimSpace(name), Quantity: strings.TrimSpace(quantity)}
	if item.Name == "" {
		return fmt.Errorf("item name is empty")
	}
	session.ExtraItems = append(session.ExtraItems, domain.RawIngredientLine{
		Text:        item.Line(),
		SourceLabel: domain.LabelManual,
	})
	e.log.Info("session %s: added item %q", session.ID, item.Line())
	return e.mutated(ctx, session)
}

// RemoveItem deletes the extra item at index and reprocesses.
func (e *Engine) RemoveItem(ctx context.Context, session *domain.Session, index int) (domain.RawIngredientLine, error) {
	if err := checkEditable(session); err != nil {
		return domain.RawIngredientLine{}, err
	}
	if index < 0 || index >= len(session.ExtraItems) {
		return domain.RawIngredientLine{}, &domain.IndexError{Index: index, Len: len(session.ExtraItems)}
	}
	removed := session.ExtraItems[index]
	session.ExtraItems = append(session.ExtraItems[:index], session.ExtraItems[index+1:]...)
	e.log.Info("session %s: removed item %q", session.ID, removed.Text)
	return removed, e.mutated(ctx, session)
}

// SetScale changes how many times a recipe is made and reprocesses.
func (e *Engine) SetScale(ctx context.Context, session *domain.Session, index int, scale float64) error {
	if err := checkEditable(session); err != nil {
		return err
	}
	if index < 0 || index >= len(session.Recipes) {
		return &domain.IndexError{Index: index, Len: len(session.Recipes)}
	}
	if scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", scale)
	}
	session.Recipes[index].Scale = scale
	e.log.Info("session %s: recipe %q scaled x%g", session.ID, session.Recipes[index].Title, scale)
	return e.mutated(ctx, session)
}

func (e *Engine) mutated(ctx context.Context, session *domain.Session) error {
	if err := e.save(ctx, session); err != nil {
		return err
	}
	return e.Reprocess(ctx, session)
}

// Reprocess re-consolidates every recipe line and extra item into a
// fresh ProcessedIngredients list, dropping earlier confirmations. An
// empty session clears the list without contacting the model. A request
// identical to the last one consolidated for this session in this
// process reuses that result instead of calling the model again.
func (e *Engine) Reprocess(ctx context.Context, session *domain.Session) error {
	lines := session.RawLines()
	if len(lines) == 0 {
		session.ProcessedIngredients = []domain.NormalizedIngredient{}
		e.forget(session.ID)
		return e.save(ctx, session)
	}

	key := requestKey(lines, e.sections)
	if ingredients, ok := e.cached(session.ID, key); ok {
		e.log.Debug("session %s: request unchanged, reusing last consolidation", session.ID)
		session.ProcessedIngredients = ingredients
		return e.save(ctx, session)
	}

	ingredients, err := e.consolidator.Consolidate(ctx, lines, e.sections)
	if err != nil {
		return fmt.Errorf("processing %d ingredient lines: %w", len(lines), err)
	}

	session.ProcessedIngredients = ingredients
	if err := e.save(ctx, session); err != nil {
		return err
	}
	e.remember(session.ID, key, ingredients)
	e.log.Info("session %s: %d lines consolidated into %d ingredients", session.ID, len(lines), len(ingredients))
	return nil
}

// ── Finalization ─────────────────────────────────────────────────

// Finalize marks the session done and records where its checklist was
// written. Every ingredient must already be confirmed.
func (e *Engine) Finalize(ctx context.Context, session *domain.Session, outputPath string) error {
	if len(session.ProcessedIngredients) == 0 {
		return domain.ErrNoIngredients
	}
	if n := len(session.Pending()); n > 0 {
		return fmt.Errorf("%w: %d left", domain.ErrUnconfirmed, n)
	}
	session.Finalized = true
	session.OutputPath = outputPath
	if err := e.save(ctx, session); err != nil {
		return err
	}
	e.log.Info("session %s finalized to %s", session.ID, outputPath)
	return nil
}

// Result is the outcome of Done.
type Result struct {
	// NeedToBuy lists the ingredients on the checklist.
	NeedToBuy []domain.NormalizedIngredient
	// Checklist is the text written to Path.
	Checklist string
	Path      string
}

// Done runs the pantry check, writes the need-to-buy checklist to
// <outputDir>/<id>.txt and finalizes the session. Answers given before a
// confirmation error are persisted.
func (e *Engine) Done(ctx context.Context, session *domain.Session, confirmer Confirmer, pantry map[string]bool, outputDir string) (*Result, error) {
	if len(session.ProcessedIngredients) == 0 {
		return nil, domain.ErrNoIngredients
	}

	confirmErr := confirmer.Confirm(ctx, session.ProcessedIngredients, pantry)
	if err := e.save(ctx, session); err != nil {
		return nil, err
	}
	if confirmErr != nil {
		return nil, fmt.Errorf("pantry check: %w", confirmErr)
	}

	buy := format.NeedToBuy(session.ProcessedIngredients)
	text := format.Checklist(buy, e.sections)
	path := filepath.Join(outputDir, session.ID+".txt")
	if err := storage.WriteFileAtomic(path, []byte(text)); err != nil {
		return nil, fmt.Errorf("writing checklist: %w", err)
	}

	if err := e.Finalize(ctx, session, path); err != nil {
		return nil, err
	}
	return &Result{NeedToBuy: buy, Checklist: text, Path: path}, nil
}

// ── Internals ────────────────────────────────────────────────────

func checkEditable(session *domain.Session) error {
	if session.Finalized {
		return fmt.Errorf("%w: open %s to edit it", domain.ErrFinalized, session.ID)
	}
	return nil
}

func (e *Engine) save(ctx context.Context, session *domain.Session) error {
	session.Version = domain.SessionVersion
	session.UpdatedAt = e.now().UTC()
	if err := e.store.Save(ctx, session); err != nil {
		return fmt.Errorf("saving session %s: %w", session.ID, err)
	}
	return nil
}

// cached returns a fresh copy of the remembered result, with every
// confirmation reset, when key matches.
func (e *Engine) cached(id, key string) ([]domain.NormalizedIngredient, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.processed[id]
	if !ok || entry.key != key {
		return nil, false
	}
	return cloneIngredients(entry.ingredients), true
}

func (e *Engine) remember(id, key string, ingredients []domain.NormalizedIngredient) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processed[id] = cacheEntry{key: key, ingredients: cloneIngredients(ingredients)}
}

func (e *Engine) forget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.processed, id)
}

func cloneIngredients(in []domain.NormalizedIngredient) []domain.NormalizedIngredient {
	out := make([]domain.NormalizedIngredient, len(in))
	for i, ing := range in {
		ing.Sources = append([]string(nil), ing.Sources...)
		ing.ConfirmedHave = domain.ConfirmUnknown
		out[i] = ing
	}
	return out
}

// requestKey hashes exactly what the consolidator would be sent.
func requestKey(lines []domain.RawIngredientLine, sections []string) string {
	h := sha256.New()
	for _, s := range sections {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, l := range lines {
		h.Write([]byte(l.Text))
		h.Write([]byte{0})
		h.Write([]byte(l.SourceLabel))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
