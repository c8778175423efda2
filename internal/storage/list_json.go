package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// Compile-time interface check.
var _ domain.ListStore = (*JSONListStore)(nil)

// JSONListStore keeps a named list as a JSON array of {name, quantity}.
type JSONListStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONListStore returns a store backed by path. The file is created
// on the first write.
func NewJSONListStore(path string) *JSONListStore {
	return &JSONListStore{path: path}
}

// Items returns the stored items. A missing file is an empty list.
func (s *JSONListStore) Items(ctx context.Context) ([]domain.NamedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Add appends item unless its name is already stored.
func (s *JSONListStore) Add(ctx context.Context, item domain.NamedItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.Name == item.Name {
			return false, nil
		}
	}
	return true, s.write(append(items, item))
}

// Remove drops the named item if present.
func (s *JSONListStore) Remove(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, it := range items {
		if it.Name != name {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	return true, s.write(kept)
}

func (s *JSONListStore) read() ([]domain.NamedItem, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.NamedItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	var items []domain.NamedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", s.path, err)
	}
	return items, nil
}

func (s *JSONListStore) write(items []domain.NamedItem) error {
	if items == nil {
		items = []domain.NamedItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", s.path, err)
	}
	return writeFileAtomic(s.path, data, 0o644)
}
