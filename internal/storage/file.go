package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Compile-time interface check.
var _ domain.SessionStore = (*FileStore)(nil)

// Reserved file names inside the data directory. They are never treated
// as session records.
const (
	CurrentFile = "current.json"
	StaplesFile = "staples.json"
	PantryFile  = "pantry.json"
)

var reserved = map[string]bool{
	CurrentFile: true,
	StaplesFile: true,
	PantryFile:  true,
}

// FileStore keeps one indented JSON file per session, plus a small
// current.json pointer, in a single directory.
type FileStore struct {
	dir string
	log *logger.Logger
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: log.Named("filestore")}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// validID rejects ids that would escape the directory or name one of
// the reserved files.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !reserved[id+".json"]
}

// Save writes the session record atomically.
func (s *FileStore) Save(ctx context.Context, session *domain.Session) error {
	if !validID(session.ID) {
		return fmt.Errorf("storage: invalid session id %q", session.ID)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode session %s: %w", session.ID, err)
	}
	s.log.Debug("saving session %s (%d bytes)", session.ID, len(data))
	return writeFileAtomic(s.path(session.ID), data, 0o644)
}

// Load reads a session record. A missing record is domain.ErrNotFound.
func (s *FileStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	if !validID(id) {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read session %s: %w", id, err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("storage: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session record.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("storage: delete session %s: %w", id, err)
	}
	s.log.Debug("deleted session %s", id)
	return nil
}

// List returns every readable session ordered by file name. Corrupt or
// unreadable records are logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]*domain.Session, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", s.dir, err)
	}
	sort.Strings(matches)

	var out []*domain.Session
	for _, path := range matches {
		name := filepath.Base(path)
		if reserved[name] {
			continue
		}
		sess, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.log.Warn("could not read session file %s: %v", name, err)
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

type pointer struct {
	ID string `json:"id"`
}

// SetCurrent atomically replaces the current-session pointer.
func (s *FileStore) SetCurrent(ctx context.Context, id string) error {
	data, err := json.Marshal(pointer{ID: id})
	if err != nil {
		return fmt.Errorf("storage: encode pointer: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, CurrentFile), data, 0o644)
}

// CurrentID reads the pointer. domain.ErrNoActiveSession if absent.
func (s *FileStore) CurrentID(ctx context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, CurrentFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrNoActiveSession
	}
	if err != nil {
		return "", fmt.Errorf("storage: read pointer: %w", err)
	}
	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("storage: decode pointer: %w", err)
	}
	if p.ID == "" {
		return "", domain.ErrNoActiveSession
	}
	return p.ID, nil
}

// ClearCurrent removes the pointer file.
func (s *FileStore) ClearCurrent(ctx context.Context) error {
	err := os.Remove(filepath.Join(s.dir, CurrentFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: clear pointer: %w", err)
	}
	return nil
}
