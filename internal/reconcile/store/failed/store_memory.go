package failed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/platform/sentinel"
)

// InMemoryStore keeps failed actions in memory for tests and dev. The file
// store reuses it as its in-memory working set.
type InMemoryStore struct {
	mu      sync.RWMutex
	actions []models.FailedAction
	cap     int
	ttl     time.Duration
}

// NewInMemory constructs an empty in-memory failed-action store.
// cap <= 0 and ttl <= 0 fall back to the defaults.
func NewInMemory(capacity int, ttl time.Duration) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryStore{cap: capacity, ttl: ttl}
}

// Load is a no-op for the pure in-memory store.
func (s *InMemoryStore) Load(_ context.Context) error { return nil }

func (s *InMemoryStore) Add(_ context.Context, actionType models.ActionKind, accountID string, params json.RawMessage, errorMessage, accountLabel string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(actionType, accountID, params, errorMessage, accountLabel), nil
}

// addLocked applies the dedup and cap invariants. Caller holds s.mu.
func (s *InMemoryStore) addLocked(actionType models.ActionKind, accountID string, params json.RawMessage, errorMessage, accountLabel string) string {
	now := time.Now()
	for i := range s.actions {
		if s.actions[i].Type == actionType && s.actions[i].AccountID == accountID {
			s.actions[i].ErrorMessage = errorMessage
			s.actions[i].Timestamp = now
			return s.actions[i].ID
		}
	}

	rec := models.FailedAction{
		ID:           "fa_" + uuid.NewString()[:12],
		Type:         actionType,
		AccountID:    accountID,
		AccountLabel: accountLabel,
		Params:       params,
		ErrorMessage: errorMessage,
		Timestamp:    now,
	}
	// Prepend and evict the oldest beyond the cap.
	s.actions = append([]models.FailedAction{rec}, s.actions...)
	if len(s.actions) > s.cap {
		s.actions = s.actions[:s.cap]
	}
	return rec.ID
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.FailedAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.actions {
		if s.actions[i].ID == id {
			cp := s.actions[i]
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed action %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *InMemoryStore) removeLocked(id string) error {
	for i := range s.actions {
		if s.actions[i].ID == id {
			s.actions = append(s.actions[:i], s.actions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("failed action %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) IncrementRetry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.actions {
		if s.actions[i].ID == id {
			s.actions[i].RetryCount++
			return nil
		}
	}
	return fmt.Errorf("failed action %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = nil
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.FailedAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FailedAction, len(s.actions))
	copy(out, s.actions)
	return out, nil
}

func (s *InMemoryStore) ActiveCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.actions), nil
}

// replace swaps the working set wholesale, dropping TTL-expired entries.
// Used by persistent backends when loading.
func (s *InMemoryStore) replace(actions []models.FailedAction, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]models.FailedAction, 0, len(actions))
	for _, a := range actions {
		if a.Expired(s.ttl, now) {
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) > s.cap {
		kept = kept[:s.cap]
	}
	s.actions = kept
}

// snapshot returns a copy of the working set for persistence.
func (s *InMemoryStore) snapshot() []models.FailedAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FailedAction, len(s.actions))
	copy(out, s.actions)
	return out
}
