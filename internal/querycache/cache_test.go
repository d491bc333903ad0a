package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanconsole/internal/ledger"
	pkgerrors "loanconsole/pkg/errors"
)

// countingReader serves canned summaries and counts upstream fetches.
type countingReader struct {
	calls int
	err   error
}

func (r *countingReader) AccountSummary(_ context.Context, accountID string) (*ledger.AccountSummary, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &ledger.AccountSummary{AccountID: accountID, Principal: float64(r.calls)}, nil
}

func TestCacheHitAvoidsUpstream(t *testing.T) {
	reader := &countingReader{}
	cache := New(reader, time.Minute)
	ctx := context.Background()

	first, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)
	second, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
	assert.Same(t, first, second)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	reader := &countingReader{}
	cache := New(reader, time.Minute)
	ctx := context.Background()

	_, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)

	cache.Invalidate("acc-1")

	refreshed, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
	assert.InDelta(t, 2, refreshed.Principal, 0.001, "second fetch reflects upstream state")
}

func TestInvalidateIsPerAccount(t *testing.T) {
	reader := &countingReader{}
	cache := New(reader, time.Minute)
	ctx := context.Background()

	_, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)
	_, err = cache.AccountSummary(ctx, "acc-2")
	require.NoError(t, err)

	cache.Invalidate("acc-1")

	_, err = cache.AccountSummary(ctx, "acc-2")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls, "acc-2 stays cached")
}

func TestExpiryForcesRefetch(t *testing.T) {
	reader := &countingReader{}
	cache := New(reader, 10*time.Millisecond)
	ctx := context.Background()

	_, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestUpstreamErrorsAreNotCached(t *testing.T) {
	reader := &countingReader{err: pkgerrors.New(pkgerrors.KindLedgerUnavailable, "ledger down")}
	cache := New(reader, time.Minute)
	ctx := context.Background()

	_, err := cache.AccountSummary(ctx, "acc-1")
	require.Error(t, err)

	reader.err = nil
	summary, err := cache.AccountSummary(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", summary.AccountID)
	assert.Equal(t, 2, reader.calls)
}
