// Package failed holds the durable failed-action store: a capped,
// deduplicated list of mutations that never reached confirmed, surviving
// process restarts so staff can retry them later.
package failed

import (
	"context"
	"encoding/json"
	"time"

	"loanconsole/internal/reconcile/models"
)

// Defaults for the capacity cap and the load-time TTL filter.
const (
	DefaultCap = 50
	DefaultTTL = 7 * 24 * time.Hour
)

// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound (wrapped) when the record does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
//
// Invariants every implementation enforces:
// - at most one record per (Type, AccountID); a duplicate Add updates the
//   existing record's error message and timestamp and returns its id
// - the list never exceeds the cap; oldest records are evicted first
// - Load discards malformed and TTL-expired entries silently
// - every mutating operation persists synchronously before returning

// Store is the durable failed-action store contract.
type Store interface {
	// Load reads the backing store and replaces in-memory state. Malformed
	// or expired entries are dropped; Load never propagates parse errors.
	Load(ctx context.Context) error
	// Add records a failure, enforcing the one-per-(type, account) dedup
	// invariant, and returns the id of the stored record.
	Add(ctx context.Context, actionType models.ActionKind, accountID string, params json.RawMessage, errorMessage, accountLabel string) (string, error)
	// Get returns one record by id.
	Get(ctx context.Context, id string) (*models.FailedAction, error)
	// Remove deletes one record by id.
	Remove(ctx context.Context, id string) error
	// IncrementRetry bumps the record's retry counter without touching
	// other fields.
	IncrementRetry(ctx context.Context, id string) error
	// ClearAll empties the store.
	ClearAll(ctx context.Context) error
	// List returns all records, most recently added first.
	List(ctx context.Context) ([]models.FailedAction, error)
	// ActiveCount returns the number of stored records.
	ActiveCount(ctx context.Context) (int, error)
}
