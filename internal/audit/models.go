package audit

import (
	"time"

	"loanconsole/internal/reconcile/models"
)

// Event is emitted from the reconciliation layer to capture the lifecycle
// of each mutation attempt. Keep it transport-agnostic so stores and sinks
// can fan out.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"userId"`
	AccountID string            `json:"accountId"`
	Action    models.ActionKind `json:"action"`
	Stage     models.Stage      `json:"stage"`
	EventID   string            `json:"eventId,omitempty"` // ledger event id, set on confirmation
	Reason    string            `json:"reason,omitempty"`  // error message on failure
	Retry     bool              `json:"retry,omitempty"`   // attempt originated from the retry panel
}
