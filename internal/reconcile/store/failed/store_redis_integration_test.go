//go:build integration

package failed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreIntegrationSuite) open() *RedisStore {
	store := NewRedis(s.redis.Client, 5, 7*24*time.Hour)
	s.Require().NoError(store.Load(s.ctx))
	return store
}

func (s *RedisStoreIntegrationSuite) TestPersistsAcrossReload() {
	store := s.open()
	id, err := store.Add(s.ctx, models.ActionWaiveFee, "acc-1", json.RawMessage(`{"amount":25}`), "boom", "")
	s.Require().NoError(err)

	reopened := s.open()
	rec, err := reopened.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("acc-1", rec.AccountID)
	s.Equal(models.ActionWaiveFee, rec.Type)
}

func (s *RedisStoreIntegrationSuite) TestDeduplicationSurvivesReload() {
	store := s.open()
	first, err := store.Add(s.ctx, models.ActionWaiveFee, "acc-1", nil, "Network error", "")
	s.Require().NoError(err)

	reopened := s.open()
	second, err := reopened.Add(s.ctx, models.ActionWaiveFee, "acc-1", nil, "Timeout", "")
	s.Require().NoError(err)
	s.Equal(first, second)

	list, err := reopened.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Timeout", list[0].ErrorMessage)
}

func (s *RedisStoreIntegrationSuite) TestRemoveAndClearPersist() {
	store := s.open()
	id, err := store.Add(s.ctx, models.ActionWaiveFee, "acc-1", nil, "boom", "")
	s.Require().NoError(err)
	_, err = store.Add(s.ctx, models.ActionRecordRepayment, "acc-2", nil, "boom", "")
	s.Require().NoError(err)

	s.Require().NoError(store.Remove(s.ctx, id))
	reopened := s.open()
	count, err := reopened.ActiveCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(reopened.ClearAll(s.ctx))
	final := s.open()
	count, err = final.ActiveCount(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}
