package failed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"loanconsole/internal/reconcile/models"
)

// redisKey holds the whole failed-action list as one JSON blob, mirroring
// the single-key layout of the file store.
const redisKey = "loanconsole:failed-actions"

// RedisStore persists failed actions in Redis. Writers in separate processes
// are not coordinated; last writer wins, same as the file store.
type RedisStore struct {
	mem    *InMemoryStore
	client *redis.Client

	persistMu sync.Mutex
}

// NewRedis constructs a Redis-backed failed-action store.
func NewRedis(client *redis.Client, capacity int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		mem:    NewInMemory(capacity, ttl),
		client: client,
	}
}

// Load reads the blob and replaces in-memory state. A missing key yields an
// empty store; malformed JSON and TTL-expired entries are dropped silently.
// Infrastructure errors (Redis unreachable) are still reported.
func (s *RedisStore) Load(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := s.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.mem.replace(nil, time.Now())
			return nil
		}
		return fmt.Errorf("load failed actions: %w", err)
	}
	var actions []models.FailedAction
	if err := json.Unmarshal(data, &actions); err != nil {
		s.mem.replace(nil, time.Now())
		return nil
	}
	s.mem.replace(actions, time.Now())
	return nil
}

func (s *RedisStore) Add(ctx context.Context, actionType models.ActionKind, accountID string, params json.RawMessage, errorMessage, accountLabel string) (string, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	id, err := s.mem.Add(ctx, actionType, accountID, params, errorMessage, accountLabel)
	if err != nil {
		return "", err
	}
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.FailedAction, error) {
	return s.mem.Get(ctx, id)
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mem.Remove(ctx, id); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *RedisStore) IncrementRetry(ctx context.Context, id string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mem.IncrementRetry(ctx, id); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.mem.ClearAll(ctx); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *RedisStore) List(ctx context.Context) ([]models.FailedAction, error) {
	return s.mem.List(ctx)
}

func (s *RedisStore) ActiveCount(ctx context.Context) (int, error) {
	return s.mem.ActiveCount(ctx)
}

func (s *RedisStore) persist(ctx context.Context) error {
	data, err := json.Marshal(s.mem.snapshot())
	if err != nil {
		return fmt.Errorf("marshal failed actions: %w", err)
	}
	if err := s.client.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("persist failed actions: %w", err)
	}
	return nil
}
