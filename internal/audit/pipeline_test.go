package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanconsole/internal/reconcile/models"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	require.NoError(t, pub.Emit(context.Background(), Event{
		AccountID: "acc-1",
		Action:    models.ActionWaiveFee,
		Stage:     models.StageOptimistic,
	}))

	events, err := store.ListByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestListByAccountFilters(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-1", Stage: models.StageOptimistic}))
	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-2", Stage: models.StageOptimistic}))
	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-1", Stage: models.StageConfirmed}))

	events, err := pub.List(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.StageConfirmed, events[1].Stage)
}

func TestPipelineDrainsToStore(t *testing.T) {
	store := NewInMemoryStore()
	pub, worker := NewPipeline(store, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-1", Stage: models.StageOptimistic}))
	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-1", Stage: models.StageConfirmed}))

	require.Eventually(t, func() bool {
		events, err := store.ListByAccount(context.Background(), "acc-1")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

// flakySink fails the first append and delegates the rest.
type flakySink struct {
	*InMemoryStore
	failed bool
}

func (f *flakySink) Append(ctx context.Context, event Event) error {
	if !f.failed {
		f.failed = true
		return errors.New("broker unavailable")
	}
	return f.InMemoryStore.Append(ctx, event)
}

func TestWorkerKeepsDrainingAfterAppendFailure(t *testing.T) {
	sink := &flakySink{InMemoryStore: NewInMemoryStore()}
	pub, worker := NewPipeline(sink, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-1", Stage: models.StageOptimistic}))
	require.NoError(t, pub.Emit(ctx, Event{AccountID: "acc-1", Stage: models.StageConfirmed}))

	// The first event is dropped by the sink; the second must still land.
	require.Eventually(t, func() bool {
		events, err := sink.InMemoryStore.ListByAccount(context.Background(), "acc-1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
