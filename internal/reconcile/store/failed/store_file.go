package failed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"loanconsole/internal/reconcile/models"
)

// FileStore persists failed actions as a single JSON array on disk, the
// durable equivalent of the console's one client-storage key. Every mutating
// operation writes the full list back before returning, so a crash
// immediately after a call never loses that call's effect.
type FileStore struct {
	mem  *InMemoryStore
	path string

	// persistMu serializes the read-modify-persist cycle across operations.
	persistMu sync.Mutex
}

// NewFile constructs a file-backed failed-action store at path.
func NewFile(path string, capacity int, ttl time.Duration) *FileStore {
	return &FileStore{
		mem:  NewInMemory(capacity, ttl),
		path: path,
	}
}

// Load reads the file and replaces in-memory state. A missing file yields an
// empty store; malformed JSON and TTL-expired entries are dropped silently.
func (s *FileStore) Load(_ context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.mem.replace(nil, time.Now())
		return nil
	}
	var actions []models.FailedAction
	if err := json.Unmarshal(data, &actions); err != nil {
		s.mem.replace(nil, time.Now())
		return nil
	}
	s.mem.replace(actions, time.Now())
	return nil
}

func (s *FileStore) Add(ctx context.Context, actionType models.ActionKind, accountID string, params json.RawMessage, errorMessage, accountLabel string) (string, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	id, err := s.mem.Add(ctx, actionType, accountID, params, errorMessage, accountLabel)
	if err != nil {
		return "", err
	}
	if err := s.persist(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.FailedAction, error) {
	return s.mem.Get(ctx, id)
}

func (s *FileStore) Remove(ctx context.Context, id string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mem.Remove(ctx, id); err != nil {
		return err
	}
	return s.persist()
}

func (s *FileStore) IncrementRetry(ctx context.Context, id string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mem.IncrementRetry(ctx, id); err != nil {
		return err
	}
	return s.persist()
}

func (s *FileStore) ClearAll(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mem.ClearAll(ctx); err != nil {
		return err
	}
	return s.persist()
}

func (s *FileStore) List(ctx context.Context) ([]models.FailedAction, error) {
	return s.mem.List(ctx)
}

func (s *FileStore) ActiveCount(ctx context.Context) (int, error) {
	return s.mem.ActiveCount(ctx)
}

// persist writes the full list atomically (temp file + rename).
// Caller holds persistMu.
func (s *FileStore) persist() error {
	actions := s.mem.snapshot()
	data, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("marshal failed actions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write failed actions: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace failed actions file: %w", err)
	}
	return nil
}
