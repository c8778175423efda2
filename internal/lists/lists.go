// Package lists manages the two small persistent named lists: staples,
// which seed every new session, and the pantry, whose items are
// auto-confirmed during the pantry check.
package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Manager wraps a ListStore with validation and logging.
type Manager struct {
	kind  string
	store domain.ListStore
	log   *logger.Logger
}

// New creates a manager. kind is used in log lines, e.g. "staples".
func New(kind string, store domain.ListStore, log *logger.Logger) *Manager {
	return &Manager{kind: kind, store: store, log: log.Named(kind)}
}

// List returns all items.
func (m *Manager) List(ctx context.Context) ([]domain.NamedItem, error) {
	items, err := m.store.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", m.kind, err)
	}
	return items, nil
}

// Add stores a new item. Adding an existing name is a no-op and
// reports false.
func (m *Manager) Add(ctx context.Context, name, quantity string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%s: item name is empty", m.kind)
	}
	added, err := m.store.Add(ctx, domain.NamedItem{Name: name, Quantity: strings.TrimSpace(quantity)})
	if err != nil {
		return false, fmt.Errorf("%s: add %q: %w", m.kind, name, err)
	}
	if added {
		m.log.Info("added %q", name)
	} else {
		m.log.Debug("%q already present", name)
	}
	return added, nil
}

// Remove deletes an item. Removing an absent name is a no-op and
// reports false.
func (m *Manager) Remove(ctx context.Context, name string) (bool, error) {
	removed, err := m.store.Remove(ctx, strings.TrimSpace(name))
	if err != nil {
		return false, fmt.Errorf("%s: remove %q: %w", m.kind, name, err)
	}
	if removed {
		m.log.Info("removed %q", name)
	}
	return removed, nil
}

// Names returns the normalized names of all items, for membership checks.
func (m *Manager) Names(ctx context.Context) (map[string]bool, error) {
	items, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(items))
	for _, it := range items {
		names[domain.NormalizeName(it.Name)] = true
	}
	return names, nil
}
