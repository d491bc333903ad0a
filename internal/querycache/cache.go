// Package querycache is the read-through cache for ledger account
// summaries. Confirmed mutations invalidate the target account so the next
// read reflects server truth rather than the optimistic guess.
package querycache

import (
	"context"
	"sync"
	"time"

	"loanconsole/internal/ledger"
)

// Reader fetches the canonical account view on cache miss.
type Reader interface {
	AccountSummary(ctx context.Context, accountID string) (*ledger.AccountSummary, error)
}

// DefaultTTL bounds staleness for accounts that see no writes.
const DefaultTTL = 30 * time.Second

type entry struct {
	summary   *ledger.AccountSummary
	fetchedAt time.Time
}

// Cache caches account summaries keyed by account id.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	reader  Reader
	ttl     time.Duration
}

// New constructs a cache over the given reader. ttl <= 0 falls back to
// DefaultTTL.
func New(reader Reader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		reader:  reader,
		ttl:     ttl,
	}
}

// AccountSummary returns the cached view or fetches it on miss/expiry.
func (c *Cache) AccountSummary(ctx context.Context, accountID string) (*ledger.AccountSummary, error) {
	c.mu.RLock()
	e, ok := c.entries[accountID]
	c.mu.RUnlock()
	if ok && time.Since(e.fetchedAt) < c.ttl {
		return e.summary, nil
	}

	summary, err := c.reader.AccountSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[accountID] = entry{summary: summary, fetchedAt: time.Now()}
	c.mu.Unlock()
	return summary, nil
}

// Invalidate drops the cached view for an account.
func (c *Cache) Invalidate(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, accountID)
}
