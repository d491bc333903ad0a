// Package history keeps the recent-customer view history: up to ten
// customer ids, most recently viewed first, no PII. Persisted as one JSON
// file next to the failed-action state.
package history

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

// MaxRecent caps the view history.
const MaxRecent = 10

// Store tracks recently viewed customers. An empty path disables
// persistence (tests/dev).
type Store struct {
	mu     sync.Mutex
	recent []models.RecentCustomer
	path   string
}

// New constructs a view-history store persisted at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted history, silently dropping malformed content.
func (s *Store) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.recent = nil
		return nil
	}
	var recent []models.RecentCustomer
	if err := json.Unmarshal(data, &recent); err != nil {
		s.recent = nil
		return nil
	}
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	s.recent = recent
	return nil
}

// RecordView puts the customer at the front of the history. An existing
// entry moves to the front instead of duplicating; the list never exceeds
// MaxRecent.
func (s *Store) RecordView(_ context.Context, customerID string) error {
	if customerID == "" {
		return fmt.Errorf("customer id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rc := range s.recent {
		if rc.CustomerID == customerID {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			break
		}
	}
	s.recent = append([]models.RecentCustomer{{
		CustomerID: customerID,
		ViewedAt:   time.Now(),
	}}, s.recent...)
	if len(s.recent) > MaxRecent {
		s.recent = s.recent[:MaxRecent]
	}
	return s.persistLocked()
}

// List returns the history, most recently viewed first.
func (s *Store) List(_ context.Context) []models.RecentCustomer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RecentCustomer, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s.recent)
	if err != nil {
		return fmt.Errorf("marshal recent customers: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write recent customers: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace recent customers file: %w", err)
	}
	return nil
}
