// Package storage provides session and named-list persistence.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.SessionStore = (*MemoryStore)(nil)
	_ domain.ListStore    = (*MemoryListStore)(nil)
)

// MemoryStore is an in-memory session store. Safe for concurrent access.
// Sessions are copied on the way in and out so callers see the same
// read-modify-write behaviour as with the file store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	current  string
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		log:      log.Named("memstore"),
	}
}

// Save persists a session. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("storage: encode session %s: %w", session.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving session %s (recipes=%d, state=%s)", session.ID, len(session.Recipes), session.State())
	s.sessions[session.ID] = data
	return nil
}

// Load retrieves a session by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		s.log.Debug("session not found: %s", id)
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("storage: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	delete(s.sessions, id)
	s.log.Debug("deleted session %s", id)
	return nil
}

// List returns all sessions ordered by ID.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if err != nil {
			s.log.Warn("skipping session %s: %v", id, err)
			continue
		}
		out = append(out, sess)
	}
	s.log.Debug("listing sessions, count=%d", len(out))
	return out, nil
}

// SetCurrent records id as the current session.
func (s *MemoryStore) SetCurrent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
	return nil
}

// CurrentID returns the current session ID.
func (s *MemoryStore) CurrentID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return "", domain.ErrNoActiveSession
	}
	return s.current, nil
}

// ClearCurrent forgets the current session.
func (s *MemoryStore) ClearCurrent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ""
	return nil
}

// MemoryListStore is an in-memory named list, in insertion order.
type MemoryListStore struct {
	mu    sync.RWMutex
	items []domain.NamedItem
}

// NewMemoryListStore creates a list store preloaded with items.
func NewMemoryListStore(items ...domain.NamedItem) *MemoryListStore {
	s := &MemoryListStore{}
	for _, it := range items {
		s.Add(context.Background(), it)
	}
	return s
}

// Items returns a copy of the stored items.
func (s *MemoryListStore) Items(ctx context.Context) ([]domain.NamedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.NamedItem(nil), s.items...), nil
}

// Add stores item unless the name is already present.
func (s *MemoryListStore) Add(ctx context.Context, item domain.NamedItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Name == item.Name {
			return false, nil
		}
	}
	s.items = append(s.items, item)
	return true, nil
}

// Remove deletes the named item if present.
func (s *MemoryListStore) Remove(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.Name == name {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
