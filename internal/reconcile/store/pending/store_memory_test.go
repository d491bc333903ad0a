package pending

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/platform/sentinel"
)

type PendingStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestPendingStoreSuite(t *testing.T) {
	suite.Run(t, new(PendingStoreSuite))
}

func (s *PendingStoreSuite) SetupTest() {
	s.store = New(30*time.Millisecond, 60*time.Millisecond)
	s.ctx = context.Background()
}

func (s *PendingStoreSuite) TearDownTest() {
	s.store.Close()
}

func (s *PendingStoreSuite) stage(accountID, id string, action models.ActionKind) {
	s.Require().NoError(s.store.SetPending(s.ctx, &models.PendingMutation{
		ID:        id,
		AccountID: accountID,
		Action:    action,
		Amount:    25,
	}))
}

func (s *PendingStoreSuite) TestSetPending() {
	s.Run("records mutation as optimistic", func() {
		s.stage("acc-1", "m-1", models.ActionWaiveFee)

		list := s.store.ListPending(s.ctx, "acc-1")
		s.Require().Len(list, 1)
		s.Equal(models.StageOptimistic, list[0].Stage)
		s.Equal(models.ActionWaiveFee, list[0].Action)
		s.False(list[0].CreatedAt.IsZero())
	})

	s.Run("forces optimistic stage regardless of input", func() {
		s.Require().NoError(s.store.SetPending(s.ctx, &models.PendingMutation{
			ID:        "m-2",
			AccountID: "acc-2",
			Action:    models.ActionRecordRepayment,
			Stage:     models.StageConfirmed,
		}))

		list := s.store.ListPending(s.ctx, "acc-2")
		s.Require().Len(list, 1)
		s.Equal(models.StageOptimistic, list[0].Stage)
	})

	s.Run("rejects nil mutation", func() {
		s.Error(s.store.SetPending(s.ctx, nil))
	})
}

func (s *PendingStoreSuite) TestStageMachine() {
	s.Run("optimistic to failed attaches error message", func() {
		s.stage("acc-1", "m-1", models.ActionWaiveFee)

		s.Require().NoError(s.store.SetStage(s.ctx, "acc-1", "m-1", models.StageFailed, "ledger unreachable"))

		list := s.store.ListPending(s.ctx, "acc-1")
		s.Require().Len(list, 1)
		s.Equal(models.StageFailed, list[0].Stage)
		s.Equal("ledger unreachable", list[0].ErrorMessage)
	})

	s.Run("failed cannot move to confirmed", func() {
		s.stage("acc-2", "m-2", models.ActionWaiveFee)
		s.Require().NoError(s.store.SetStage(s.ctx, "acc-2", "m-2", models.StageFailed, "boom"))

		err := s.store.SetStage(s.ctx, "acc-2", "m-2", models.StageConfirmed, "")
		s.Require().ErrorIs(err, sentinel.ErrInvalidTransition)
	})

	s.Run("unknown mutation returns ErrNotFound", func() {
		err := s.store.SetStage(s.ctx, "acc-3", "missing", models.StageConfirmed, "")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PendingStoreSuite) TestSetPendingIfAbsent() {
	s.Run("rejects a second optimistic mutation of the same action", func() {
		s.Require().NoError(s.store.SetPendingIfAbsent(s.ctx, &models.PendingMutation{
			ID: "m-1", AccountID: "acc-1", Action: models.ActionWaiveFee,
		}))

		err := s.store.SetPendingIfAbsent(s.ctx, &models.PendingMutation{
			ID: "m-2", AccountID: "acc-1", Action: models.ActionWaiveFee,
		})
		s.Require().ErrorIs(err, sentinel.ErrDuplicate)
		s.Len(s.store.ListPending(s.ctx, "acc-1"), 1)
	})

	s.Run("allows a different action on the same account", func() {
		s.Require().NoError(s.store.SetPendingIfAbsent(s.ctx, &models.PendingMutation{
			ID: "m-3", AccountID: "acc-1", Action: models.ActionRecordRepayment,
		}))
	})

	s.Run("admits exactly one of many concurrent identical submissions", func() {
		const attempts = 16
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.store.SetPendingIfAbsent(s.ctx, &models.PendingMutation{
					ID:        fmt.Sprintf("race-%d", i),
					AccountID: "acc-race",
					Action:    models.ActionWaiveFee,
				})
			}(i)
		}
		wg.Wait()

		var accepted int
		for _, err := range errs {
			if err == nil {
				accepted++
			} else {
				s.Require().ErrorIs(err, sentinel.ErrDuplicate)
			}
		}
		s.Equal(1, accepted)
		s.Len(s.store.ListPending(s.ctx, "acc-race"), 1)
	})
}

func (s *PendingStoreSuite) TestConfirmedClearsAfterDisplayWindow() {
	s.stage("acc-1", "m-1", models.ActionWaiveFee)
	s.Require().NoError(s.store.SetStage(s.ctx, "acc-1", "m-1", models.StageConfirmed, ""))

	// Still visible immediately after confirmation.
	s.Require().Len(s.store.ListPending(s.ctx, "acc-1"), 1)

	s.Eventually(func() bool {
		return len(s.store.ListPending(s.ctx, "acc-1")) == 0
	}, time.Second, 10*time.Millisecond, "confirmed mutation should clear after display window")
}

func (s *PendingStoreSuite) TestFailedClearsAfterDisplayWindow() {
	s.stage("acc-1", "m-1", models.ActionWaiveFee)
	s.Require().NoError(s.store.SetStage(s.ctx, "acc-1", "m-1", models.StageFailed, "ledger unreachable"))

	// The failure stays visible long enough to be read.
	list := s.store.ListPending(s.ctx, "acc-1")
	s.Require().Len(list, 1)
	s.Equal(models.StageFailed, list[0].Stage)

	s.Eventually(func() bool {
		return len(s.store.ListPending(s.ctx, "acc-1")) == 0
	}, time.Second, 10*time.Millisecond, "failed mutation should clear after display window")
}

func (s *PendingStoreSuite) TestHasPendingAction() {
	s.Run("true while optimistic", func() {
		s.stage("acc-1", "m-1", models.ActionWaiveFee)
		s.True(s.store.HasPendingAction(s.ctx, "acc-1", models.ActionWaiveFee))
	})

	s.Run("false for a different action on the same account", func() {
		s.False(s.store.HasPendingAction(s.ctx, "acc-1", models.ActionRecordRepayment))
	})

	s.Run("false once the attempt has failed", func() {
		s.stage("acc-2", "m-2", models.ActionWaiveFee)
		s.Require().NoError(s.store.SetStage(s.ctx, "acc-2", "m-2", models.StageFailed, "boom"))
		s.False(s.store.HasPendingAction(s.ctx, "acc-2", models.ActionWaiveFee))
	})
}

func (s *PendingStoreSuite) TestClearPending() {
	s.stage("acc-1", "m-1", models.ActionWaiveFee)

	s.store.ClearPending(s.ctx, "acc-1", "m-1")
	s.Empty(s.store.ListPending(s.ctx, "acc-1"))

	// Clearing again is a no-op.
	s.store.ClearPending(s.ctx, "acc-1", "m-1")
	s.Empty(s.store.ListPending(s.ctx, "acc-1"))
}
