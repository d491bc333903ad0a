// Package pending holds the transient optimistic-state store: an in-memory,
// per-account view of mutations that are in flight or recently resolved.
// State is process-local and resets on restart; confirmed entries linger for
// a short display window before being cleared.
package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/platform/sentinel"
)

// Display windows before a resolved mutation is cleared automatically.
// Failed entries linger longer so the UI can show what went wrong.
const (
	DefaultConfirmDisplay = 2 * time.Second
	DefaultFailedDisplay  = 30 * time.Second
)

// Store tracks pending mutations keyed by account.
type Store struct {
	mu             sync.RWMutex
	byAccount      map[string][]*models.PendingMutation
	timers         map[string]*time.Timer
	confirmDisplay time.Duration
	failedDisplay  time.Duration
	closed         bool
}

// New constructs an empty pending store. Non-positive display windows fall
// back to the defaults.
func New(confirmDisplay, failedDisplay time.Duration) *Store {
	if confirmDisplay <= 0 {
		confirmDisplay = DefaultConfirmDisplay
	}
	if failedDisplay <= 0 {
		failedDisplay = DefaultFailedDisplay
	}
	return &Store{
		byAccount:      make(map[string][]*models.PendingMutation),
		timers:         make(map[string]*time.Timer),
		confirmDisplay: confirmDisplay,
		failedDisplay:  failedDisplay,
	}
}

// SetPending records a new in-flight mutation under the optimistic stage.
func (s *Store) SetPending(_ context.Context, m *models.PendingMutation) error {
	if m == nil {
		return fmt.Errorf("pending mutation is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageLocked(m)
	return nil
}

// SetPendingIfAbsent stages the mutation only if no optimistic mutation of
// the same action kind is outstanding for the account. Check and insert
// happen under one lock, so concurrent identical submissions cannot both
// pass the duplicate gate.
func (s *Store) SetPendingIfAbsent(_ context.Context, m *models.PendingMutation) error {
	if m == nil {
		return fmt.Errorf("pending mutation is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byAccount[m.AccountID] {
		if existing.Action == m.Action && existing.Stage == models.StageOptimistic {
			return fmt.Errorf("%s already pending for account %s: %w", m.Action, m.AccountID, sentinel.ErrDuplicate)
		}
	}
	s.stageLocked(m)
	return nil
}

// stageLocked inserts a copy of m under the optimistic stage. Caller holds s.mu.
func (s *Store) stageLocked(m *models.PendingMutation) {
	cp := *m
	cp.Stage = models.StageOptimistic
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.byAccount[cp.AccountID] = append(s.byAccount[cp.AccountID], &cp)
}

// SetStage transitions a specific mutation's stage, enforcing the stage
// machine. Transitioning to failed attaches the error message. Resolved
// mutations are scheduled for automatic clearing after their display window,
// so neither outcome accumulates records indefinitely.
func (s *Store) SetStage(_ context.Context, accountID, mutationID string, stage models.Stage, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.find(accountID, mutationID)
	if m == nil {
		return fmt.Errorf("pending mutation %s: %w", mutationID, sentinel.ErrNotFound)
	}
	if !m.Stage.CanTransition(stage) {
		return fmt.Errorf("stage %s -> %s: %w", m.Stage, stage, sentinel.ErrInvalidTransition)
	}
	m.Stage = stage
	switch stage {
	case models.StageFailed:
		m.ErrorMessage = errorMessage
		s.scheduleClearLocked(accountID, mutationID, s.failedDisplay)
	case models.StageConfirmed:
		s.scheduleClearLocked(accountID, mutationID, s.confirmDisplay)
	}
	return nil
}

// ClearPending removes a mutation record entirely. It is idempotent and
// cancels any deferred clear for the same record.
func (s *Store) ClearPending(_ context.Context, accountID, mutationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(accountID, mutationID)
}

// HasPendingAction reports whether an optimistic mutation of the given kind
// is outstanding for the account. Used to gate duplicate submissions.
func (s *Store) HasPendingAction(_ context.Context, accountID string, action models.ActionKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byAccount[accountID] {
		if m.Action == action && m.Stage == models.StageOptimistic {
			return true
		}
	}
	return false
}

// ListPending returns copies of the account's pending mutations for rendering.
func (s *Store) ListPending(_ context.Context, accountID string) []models.PendingMutation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PendingMutation, 0, len(s.byAccount[accountID]))
	for _, m := range s.byAccount[accountID] {
		out = append(out, *m)
	}
	return out
}

// Close stops all deferred clears. Records are left in place; the store is
// process-local so this only matters for orderly shutdown.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// scheduleClearLocked arms the deferred clear that lets the UI show the
// resolved stage before the record disappears. Caller holds s.mu.
func (s *Store) scheduleClearLocked(accountID, mutationID string, after time.Duration) {
	if s.closed {
		return
	}
	key := accountID + "/" + mutationID
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(after, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.clearLocked(accountID, mutationID)
	})
}

func (s *Store) clearLocked(accountID, mutationID string) {
	key := accountID + "/" + mutationID
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	list := s.byAccount[accountID]
	for i, m := range list {
		if m.ID == mutationID {
			s.byAccount[accountID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.byAccount[accountID]) == 0 {
		delete(s.byAccount, accountID)
	}
}

func (s *Store) find(accountID, mutationID string) *models.PendingMutation {
	for _, m := range s.byAccount[accountID] {
		if m.ID == mutationID {
			return m
		}
	}
	return nil
}
