package service

import (
	"context"
	"encoding/json"
	"fmt"

	"loanconsole/internal/ledger"
	"loanconsole/internal/reconcile/models"
	"loanconsole/internal/reconcile/retry"
	pkgerrors "loanconsole/pkg/errors"
	"loanconsole/pkg/platform/sentinel"
)

// RetryFailedAction replays one durable failed action: it bumps the retry
// counter, then dispatches the stored params on the bus. The record itself
// is removed only by the handler's success path, so the panel row stays
// until the resubmission confirms.
func (s *Service) RetryFailedAction(ctx context.Context, id string) error {
	rec, err := s.failed.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.pending.HasPendingAction(ctx, rec.AccountID, rec.Type) {
		return fmt.Errorf("%s already pending for account %s: %w", rec.Type, rec.AccountID, sentinel.ErrDuplicate)
	}
	if err := s.failed.IncrementRetry(ctx, id); err != nil {
		return err
	}
	s.metrics.IncrementRetries()
	return s.bus.Dispatch(ctx, retry.Request{
		ID:        rec.ID,
		Type:      rec.Type,
		AccountID: rec.AccountID,
		Params:    rec.Params,
	})
}

// RegisterRetryHandlers installs one bus handler per action kind. Each
// handler resubmits the stored params unchanged; confirmation removes the
// durable record.
func (s *Service) RegisterRetryHandlers() {
	s.bus.Register(models.ActionWaiveFee, func(ctx context.Context, req retry.Request) error {
		var r ledger.WaiveFeeRequest
		if err := unmarshalParams(req.Params, &r); err != nil {
			return err
		}
		_, err := s.waiveFee(ctx, r, "", req.ID)
		return err
	})
	s.bus.Register(models.ActionRecordRepayment, func(ctx context.Context, req retry.Request) error {
		var r ledger.RepaymentRequest
		if err := unmarshalParams(req.Params, &r); err != nil {
			return err
		}
		_, err := s.recordRepayment(ctx, r, "", req.ID)
		return err
	})
	s.bus.Register(models.ActionWriteOffRequest, func(ctx context.Context, req retry.Request) error {
		var r ledger.WriteOffRequest
		if err := unmarshalParams(req.Params, &r); err != nil {
			return err
		}
		_, err := s.submitWriteOff(ctx, r, "", req.ID)
		return err
	})
	for _, action := range []models.ActionKind{
		models.ActionWriteOffCancel,
		models.ActionWriteOffApprove,
		models.ActionWriteOffReject,
	} {
		action := action
		s.bus.Register(action, func(ctx context.Context, req retry.Request) error {
			var r ledger.WriteOffDecision
			if err := unmarshalParams(req.Params, &r); err != nil {
				return err
			}
			_, err := s.decideWriteOff(ctx, action, r, "", req.ID)
			return err
		})
	}
}

func unmarshalParams(params json.RawMessage, out any) error {
	if err := json.Unmarshal(params, out); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.KindValidation, "stored retry params are malformed")
	}
	return nil
}
