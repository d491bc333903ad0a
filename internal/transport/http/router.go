// Package httptransport is the thin HTTP layer over the reconciliation
// services. It delegates to domain services without embedding business
// logic so transport concerns remain isolated.
package httptransport

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loanconsole/internal/ledger"
	"loanconsole/internal/platform/opmode"
	"loanconsole/internal/reconcile/models"
	"loanconsole/internal/reconcile/store/failed"
)

// MutationService is the write surface the handlers delegate to.
type MutationService interface {
	WaiveFee(ctx context.Context, req ledger.WaiveFeeRequest, accountLabel string) (*ledger.MutationResponse, error)
	RecordRepayment(ctx context.Context, req ledger.RepaymentRequest, accountLabel string) (*ledger.MutationResponse, error)
	SubmitWriteOff(ctx context.Context, req ledger.WriteOffRequest, accountLabel string) (*ledger.MutationResponse, error)
	CancelWriteOff(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error)
	ApproveWriteOff(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error)
	RejectWriteOff(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error)
	RetryFailedAction(ctx context.Context, id string) error
}

// PendingReader exposes the transient optimistic state for rendering.
type PendingReader interface {
	ListPending(ctx context.Context, accountID string) []models.PendingMutation
}

// AccountReader serves the cached read-side account view.
type AccountReader interface {
	AccountSummary(ctx context.Context, accountID string) (*ledger.AccountSummary, error)
}

// HistoryStore records and lists recently viewed customers.
type HistoryStore interface {
	RecordView(ctx context.Context, customerID string) error
	List(ctx context.Context) []models.RecentCustomer
}

// HealthChecker reports reachability of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler wires the console API endpoints to their services.
type Handler struct {
	mutations MutationService
	failed    failed.Store
	pending   PendingReader
	accounts  AccountReader
	history   HistoryStore
	mode      *opmode.Mode
	ledger    HealthChecker
	logger    *log.Logger
}

// New constructs the HTTP handler with its dependencies.
func New(mutations MutationService, failedStore failed.Store, pendingReader PendingReader,
	accounts AccountReader, historyStore HistoryStore, mode *opmode.Mode,
	ledgerHealth HealthChecker, logger *log.Logger) *Handler {
	return &Handler{
		mutations: mutations,
		failed:    failedStore,
		pending:   pendingReader,
		accounts:  accounts,
		history:   historyStore,
		mode:      mode,
		ledger:    ledgerHealth,
		logger:    logger,
	}
}

// NewRouter mounts all console endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestMetadata)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ledger", func(r chi.Router) {
			r.Post("/waive-fee", h.handleWaiveFee)
			r.Post("/repayment", h.handleRepayment)
			r.Post("/write-off", h.handleWriteOffSubmit)
			r.Post("/write-off/cancel", h.handleWriteOffCancel)
			r.Post("/write-off/approve", h.handleWriteOffApprove)
			r.Post("/write-off/reject", h.handleWriteOffReject)
		})

		r.Route("/failed-actions", func(r chi.Router) {
			r.Get("/", h.handleFailedList)
			r.Get("/count", h.handleFailedCount)
			r.Post("/{id}/retry", h.handleFailedRetry)
			r.Delete("/{id}", h.handleFailedDismiss)
			r.Delete("/", h.handleFailedClearAll)
		})

		r.Get("/accounts/{accountID}", h.handleAccountSummary)
		r.Get("/accounts/{accountID}/pending", h.handlePendingList)

		r.Route("/recent-customers", func(r chi.Router) {
			r.Get("/", h.handleRecentList)
			r.Post("/{customerID}", h.handleRecentRecord)
		})
	})

	r.Get("/healthz", h.handleHealth)
	r.Post("/admin/read-only", h.handleSetReadOnly)
	r.Handle("/metrics", promhttp.Handler())
	return r
}
