package service

import (
	"context"
	"encoding/json"
	"fmt"

	"loanconsole/internal/ledger"
	"loanconsole/internal/reconcile/models"
	pkgerrors "loanconsole/pkg/errors"
)

// WaiveFee waives fees on a loan account.
func (s *Service) WaiveFee(ctx context.Context, req ledger.WaiveFeeRequest, accountLabel string) (*ledger.MutationResponse, error) {
	return s.waiveFee(ctx, req, accountLabel, "")
}

func (s *Service) waiveFee(ctx context.Context, req ledger.WaiveFeeRequest, accountLabel, retryRecordID string) (*ledger.MutationResponse, error) {
	if req.LoanAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "loan account id is required")
	}
	if req.WaiverAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "waiver amount must be positive")
	}
	return s.submit(ctx, submission{
		action:        models.ActionWaiveFee,
		accountID:     req.LoanAccountID,
		accountLabel:  accountLabel,
		amount:        req.WaiverAmount,
		params:        mustParams(req),
		retryRecordID: retryRecordID,
		call: func(ctx context.Context, key string) (*ledger.MutationResponse, error) {
			return s.ledger.WaiveFee(ctx, req, key)
		},
		summarize: func(*ledger.MutationResponse) string {
			return fmt.Sprintf("Waived %.2f in fees on %s", req.WaiverAmount, req.LoanAccountID)
		},
	})
}

// RecordRepayment posts a repayment; the success notification summarizes
// the ledger's allocation breakdown.
func (s *Service) RecordRepayment(ctx context.Context, req ledger.RepaymentRequest, accountLabel string) (*ledger.MutationResponse, error) {
	return s.recordRepayment(ctx, req, accountLabel, "")
}

func (s *Service) recordRepayment(ctx context.Context, req ledger.RepaymentRequest, accountLabel, retryRecordID string) (*ledger.MutationResponse, error) {
	if req.LoanAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "loan account id is required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "repayment amount must be positive")
	}
	return s.submit(ctx, submission{
		action:        models.ActionRecordRepayment,
		accountID:     req.LoanAccountID,
		accountLabel:  accountLabel,
		amount:        req.Amount,
		params:        mustParams(req),
		retryRecordID: retryRecordID,
		call: func(ctx context.Context, key string) (*ledger.MutationResponse, error) {
			return s.ledger.RecordRepayment(ctx, req, key)
		},
		summarize: func(resp *ledger.MutationResponse) string {
			if resp.Allocation == nil {
				return fmt.Sprintf("Recorded repayment of %.2f on %s", req.Amount, req.LoanAccountID)
			}
			return fmt.Sprintf("Recorded repayment of %.2f on %s (fees %.2f, principal %.2f, overpayment %.2f)",
				req.Amount, req.LoanAccountID,
				resp.Allocation.AllocatedToFees, resp.Allocation.AllocatedToPrincipal, resp.Allocation.Overpayment)
		},
	})
}

// SubmitWriteOff raises a write-off request for approval.
func (s *Service) SubmitWriteOff(ctx context.Context, req ledger.WriteOffRequest, accountLabel string) (*ledger.MutationResponse, error) {
	return s.submitWriteOff(ctx, req, accountLabel, "")
}

func (s *Service) submitWriteOff(ctx context.Context, req ledger.WriteOffRequest, accountLabel, retryRecordID string) (*ledger.MutationResponse, error) {
	if req.LoanAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "loan account id is required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "write-off amount must be positive")
	}
	return s.submit(ctx, submission{
		action:        models.ActionWriteOffRequest,
		accountID:     req.LoanAccountID,
		accountLabel:  accountLabel,
		amount:        req.Amount,
		params:        mustParams(req),
		retryRecordID: retryRecordID,
		call: func(ctx context.Context, key string) (*ledger.MutationResponse, error) {
			return s.ledger.SubmitWriteOff(ctx, req, key)
		},
	})
}

// CancelWriteOff withdraws a pending write-off request.
func (s *Service) CancelWriteOff(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error) {
	return s.decideWriteOff(ctx, models.ActionWriteOffCancel, req, accountLabel, "")
}

// ApproveWriteOff approves a pending write-off request.
func (s *Service) ApproveWriteOff(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error) {
	return s.decideWriteOff(ctx, models.ActionWriteOffApprove, req, accountLabel, "")
}

// RejectWriteOff rejects a pending write-off request.
func (s *Service) RejectWriteOff(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error) {
	return s.decideWriteOff(ctx, models.ActionWriteOffReject, req, accountLabel, "")
}

func (s *Service) decideWriteOff(ctx context.Context, action models.ActionKind, req ledger.WriteOffDecision, accountLabel, retryRecordID string) (*ledger.MutationResponse, error) {
	if req.LoanAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "loan account id is required")
	}
	if req.WriteOffID == "" {
		return nil, pkgerrors.New(pkgerrors.KindValidation, "write-off id is required")
	}
	call := s.ledger.CancelWriteOff
	switch action {
	case models.ActionWriteOffApprove:
		call = s.ledger.ApproveWriteOff
	case models.ActionWriteOffReject:
		call = s.ledger.RejectWriteOff
	}
	return s.submit(ctx, submission{
		action:        action,
		accountID:     req.LoanAccountID,
		accountLabel:  accountLabel,
		params:        mustParams(req),
		retryRecordID: retryRecordID,
		call: func(ctx context.Context, key string) (*ledger.MutationResponse, error) {
			return call(ctx, req, key)
		},
	})
}

// mustParams marshals the original request payload retained for retry.
// The request DTOs are plain data; marshaling them cannot fail.
func mustParams(req any) json.RawMessage {
	b, err := json.Marshal(req)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
