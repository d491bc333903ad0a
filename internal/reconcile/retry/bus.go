// Package retry decouples the failed-action panel from the services that
// resubmit mutations. The panel dispatches a typed request; whichever
// handler registered for that action kind resubmits the stored params and,
// on success, removes the durable record.
package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/platform/sentinel"
)

// Request carries everything a handler needs to resubmit a failed action.
type Request struct {
	ID        string            `json:"id"`
	Type      models.ActionKind `json:"type"`
	AccountID string            `json:"accountId"`
	Params    json.RawMessage   `json:"params"`
}

// Handler resubmits one failed action using its stored params.
type Handler func(ctx context.Context, req Request) error

// Bus routes retry requests to the handler registered for each action kind.
type Bus struct {
	mu       sync.RWMutex
	handlers map[models.ActionKind]Handler
}

// NewBus constructs an empty retry bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[models.ActionKind]Handler)}
}

// Register installs the handler for an action kind, replacing any previous
// registration.
func (b *Bus) Register(action models.ActionKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = h
}

// Dispatch delivers the request to the handler for its action kind.
func (b *Bus) Dispatch(ctx context.Context, req Request) error {
	b.mu.RLock()
	h, ok := b.handlers[req.Type]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no retry handler for action %s: %w", req.Type, sentinel.ErrNotFound)
	}
	return h(ctx, req)
}
