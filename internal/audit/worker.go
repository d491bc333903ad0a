package audit

import (
	"context"
	"io"
	"log"
)

// Worker consumes audit events from a channel and persists them, keeping
// the reconciliation hot path free of sink latency.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *log.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Append failures are
// logged and skipped; the audit trail is best-effort and a flaky sink must
// not take the console down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Printf("append audit event for %s/%s: %v", event.AccountID, event.Action, err)
			}
		}
	}
}
