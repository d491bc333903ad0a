package audit

import (
	"context"
	"log"
)

// NewPipeline wires a publisher to a buffered channel drained by a worker,
// keeping sink latency (Kafka, database) off the mutation hot path.
func NewPipeline(store Store, buffer int, logger *log.Logger) (*Publisher, *Worker) {
	inbox := make(chan Event, buffer)
	return NewPublisher(&chanSink{inbox: inbox, reader: store}), NewWorker(store, inbox, logger)
}

// chanSink enqueues appends for the worker and delegates reads to the
// backing store.
type chanSink struct {
	inbox  chan Event
	reader Store
}

func (c *chanSink) Append(ctx context.Context, event Event) error {
	select {
	case c.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *chanSink) ListByAccount(ctx context.Context, accountID string) ([]Event, error) {
	return c.reader.ListByAccount(ctx, accountID)
}
