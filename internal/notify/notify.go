// Package notify decouples mutation orchestration from how outcomes are
// surfaced. The server logs notifications; tests capture them; a UI gateway
// could push them to clients. Failure notifications say whether a retry is
// offered and carry the copy-details blob.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"loanconsole/internal/reconcile/models"
	pkgerrors "loanconsole/pkg/errors"
)

// Notification is one user-facing outcome message.
type Notification struct {
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	AccountID string            `json:"accountId,omitempty"`
	Action    models.ActionKind `json:"action,omitempty"`
	Kind      pkgerrors.Kind    `json:"kind,omitempty"`
	ErrorID   string            `json:"errorId,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Details   json.RawMessage   `json:"details,omitempty"`
}

// Notifier receives mutation outcomes.
type Notifier interface {
	Success(ctx context.Context, n Notification)
	Failure(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the process log.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier constructs a log-backed notifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Success(_ context.Context, n Notification) {
	l.logger.Printf("notify success account=%s action=%s: %s: %s", n.AccountID, n.Action, n.Title, n.Message)
}

func (l *LogNotifier) Failure(_ context.Context, n Notification) {
	l.logger.Printf("notify failure account=%s action=%s kind=%s retryable=%t errorId=%s: %s: %s",
		n.AccountID, n.Action, n.Kind, n.Retryable, n.ErrorID, n.Title, n.Message)
}

// Capture records notifications for assertions in tests.
type Capture struct {
	mu        sync.Mutex
	successes []Notification
	failures  []Notification
}

// NewCapture constructs an empty capturing notifier.
func NewCapture() *Capture { return &Capture{} }

func (c *Capture) Success(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successes = append(c.successes, n)
}

func (c *Capture) Failure(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, n)
}

// Successes returns a copy of captured success notifications.
func (c *Capture) Successes() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.successes))
	copy(out, c.successes)
	return out
}

// Failures returns a copy of captured failure notifications.
func (c *Capture) Failures() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.failures))
	copy(out, c.failures)
	return out
}
