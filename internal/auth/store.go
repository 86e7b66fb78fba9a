package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"moneymanager/internal/core"
)

// SessionStore persists the signed-in identity between runs.
type SessionStore interface {
	Load() (core.Identity, bool, error)
	Save(core.Identity) error
	Clear() error
}

// FileStore keeps the identity as JSON in a single file readable only by
// the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (core.Identity, bool, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return core.Identity{}, false, nil
	}
	if err != nil {
		return core.Identity{}, false, fmt.Errorf("read session file: %w", err)
	}
	var id core.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return core.Identity{}, false, fmt.Errorf("decode session file: %w", err)
	}
	return id, id.UID != "", nil
}

func (s *FileStore) Save(id core.Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	b, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStore is a SessionStore for tests.
type MemoryStore struct {
	id core.Identity
	ok bool
}

func (m *MemoryStore) Load() (core.Identity, bool, error) { return m.id, m.ok, nil }
func (m *MemoryStore) Save(id core.Identity) error        { m.id, m.ok = id, true; return nil }
func (m *MemoryStore) Clear() error                       { m.id, m.ok = core.Identity{}, false; return nil }
