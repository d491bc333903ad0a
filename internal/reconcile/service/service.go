// Package service orchestrates console writes against the ledger: the
// single choke point that stages a mutation as optimistic, submits it,
// and reconciles success or failure with consistent cache invalidation,
// durable failure recording, and notifications.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"loanconsole/internal/ledger"
	"loanconsole/internal/reconcile/idempotency"
	"loanconsole/internal/reconcile/models"
	"loanconsole/internal/reconcile/retry"
	"loanconsole/internal/reconcile/store/failed"
	"loanconsole/internal/reconcile/store/pending"
	pkgerrors "loanconsole/pkg/errors"
	"loanconsole/pkg/requestcontext"
)

// LedgerClient is the write surface of the remote ledger.
type LedgerClient interface {
	WaiveFee(ctx context.Context, req ledger.WaiveFeeRequest, idempotencyKey string) (*ledger.MutationResponse, error)
	RecordRepayment(ctx context.Context, req ledger.RepaymentRequest, idempotencyKey string) (*ledger.MutationResponse, error)
	SubmitWriteOff(ctx context.Context, req ledger.WriteOffRequest, idempotencyKey string) (*ledger.MutationResponse, error)
	CancelWriteOff(ctx context.Context, req ledger.WriteOffDecision, idempotencyKey string) (*ledger.MutationResponse, error)
	ApproveWriteOff(ctx context.Context, req ledger.WriteOffDecision, idempotencyKey string) (*ledger.MutationResponse, error)
	RejectWriteOff(ctx context.Context, req ledger.WriteOffDecision, idempotencyKey string) (*ledger.MutationResponse, error)
}

// Service coordinates the transient and durable stores around ledger calls.
type Service struct {
	pending  *pending.Store
	failed   failed.Store
	ledger   LedgerClient
	bus      *retry.Bus
	cache    Invalidator
	notifier Notifier
	audit    AuditEmitter
	metrics  MetricsRecorder
	logger   *log.Logger
}

// New constructs the orchestration service. Pending store, failed store,
// ledger client, and retry bus are required; everything else defaults to a
// no-op. Call RegisterRetryHandlers once wiring is complete.
func New(pendingStore *pending.Store, failedStore failed.Store, ledgerClient LedgerClient, bus *retry.Bus, opts ...Option) (*Service, error) {
	if pendingStore == nil || failedStore == nil || ledgerClient == nil || bus == nil {
		return nil, fmt.Errorf("pending store, failed store, ledger client, and retry bus are required")
	}
	s := &Service{
		pending:  pendingStore,
		failed:   failedStore,
		ledger:   ledgerClient,
		bus:      bus,
		cache:    nopInvalidator{},
		notifier: nopNotifier{},
		audit:    nopAudit{},
		metrics:  nopMetrics{},
		logger:   log.New(nopWriter{}, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// submission is one staged write attempt flowing through the shared path.
type submission struct {
	action       models.ActionKind
	accountID    string
	accountLabel string
	amount       float64
	params       json.RawMessage
	call         func(ctx context.Context, idempotencyKey string) (*ledger.MutationResponse, error)
	summarize    func(resp *ledger.MutationResponse) string

	// retryRecordID is set when the attempt originated from the failed-action
	// panel; the record is removed once the resubmission confirms.
	retryRecordID string
}

// submit runs the optimistic → confirmed | failed stage machine for one
// attempt.
func (s *Service) submit(ctx context.Context, sub submission) (*ledger.MutationResponse, error) {
	userID := requestcontext.UserID(ctx)
	key := idempotency.NewKey(userID, sub.action)
	mutation := &models.PendingMutation{
		ID:        key,
		AccountID: sub.accountID,
		Action:    sub.action,
		Amount:    sub.amount,
	}
	// Duplicate gate and stage insert are one atomic store operation, so two
	// concurrent identical submissions cannot both reach the ledger.
	if err := s.pending.SetPendingIfAbsent(ctx, mutation); err != nil {
		return nil, err
	}
	s.metrics.IncrementSubmitted(sub.action.String())
	s.emitAudit(ctx, userID, sub, models.StageOptimistic, "", "")

	resp, err := sub.call(ctx, key)
	if err != nil {
		return nil, s.reconcileFailure(ctx, userID, sub, key, err)
	}

	s.reconcileSuccess(ctx, userID, sub, key, resp)
	return resp, nil
}

func (s *Service) reconcileSuccess(ctx context.Context, userID string, sub submission, key string, resp *ledger.MutationResponse) {
	if err := s.pending.SetStage(ctx, sub.accountID, key, models.StageConfirmed, ""); err != nil {
		s.logger.Printf("confirm stage for %s/%s: %v", sub.accountID, key, err)
	}
	s.cache.Invalidate(sub.accountID)
	s.metrics.IncrementConfirmed(sub.action.String())
	s.emitAudit(ctx, userID, sub, models.StageConfirmed, resp.EventID, "")

	if sub.retryRecordID != "" {
		if err := s.failed.Remove(ctx, sub.retryRecordID); err != nil {
			s.logger.Printf("remove failed action %s after retry: %v", sub.retryRecordID, err)
		}
		s.refreshFailedGauge(ctx)
	}

	message := fmt.Sprintf("%s confirmed for %s", sub.action, sub.accountID)
	if sub.summarize != nil {
		message = sub.summarize(resp)
	}
	s.notifier.Success(ctx, notification(sub, "Action confirmed", message))
}

// reconcileFailure normalizes the error and records the failed stage. For
// transient kinds only, it hands the attempt off to the durable store so it
// can be retried from the panel. Terminal kinds stay notification-only.
func (s *Service) reconcileFailure(ctx context.Context, userID string, sub submission, key string, cause error) error {
	norm := pkgerrors.Normalize(cause)
	if err := s.pending.SetStage(ctx, sub.accountID, key, models.StageFailed, norm.Message); err != nil {
		s.logger.Printf("fail stage for %s/%s: %v", sub.accountID, key, err)
	}
	s.metrics.IncrementFailed(string(norm.Kind))
	s.emitAudit(ctx, userID, sub, models.StageFailed, "", norm.Message)

	if norm.Kind.Retryable() {
		if _, err := s.failed.Add(ctx, sub.action, sub.accountID, sub.params, norm.Message, sub.accountLabel); err != nil {
			s.logger.Printf("record failed action for %s/%s: %v", sub.accountID, sub.action, err)
		}
		s.refreshFailedGauge(ctx)
		// Durable handoff complete; drop the transient record.
		s.pending.ClearPending(ctx, sub.accountID, key)
	}

	n := notification(sub, "Action failed", norm.Message)
	n.Kind = norm.Kind
	n.ErrorID = norm.ID
	n.Retryable = norm.Kind.Retryable()
	n.Details = norm.Details()
	s.notifier.Failure(ctx, n)

	return norm
}

func (s *Service) emitAudit(ctx context.Context, userID string, sub submission, stage models.Stage, eventID, reason string) {
	s.audit.Emit(ctx, userID, sub.accountID, sub.action, stage, eventID, reason, sub.retryRecordID != "")
}

func (s *Service) refreshFailedGauge(ctx context.Context) {
	if count, err := s.failed.ActiveCount(ctx); err == nil {
		s.metrics.SetFailedActionsActive(count)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
