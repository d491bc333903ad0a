package service

import (
	"context"
	"log"

	"loanconsole/internal/audit"
	"loanconsole/internal/reconcile/models"
)

// Option configures optional service collaborators.
type Option func(*Service)

// WithInvalidator wires the query cache invalidated on confirmed writes.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) {
		if inv != nil {
			s.cache = inv
		}
	}
}

// WithNotifier wires the outcome notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAudit wires the audit publisher for mutation lifecycle events.
func WithAudit(pub *audit.Publisher, logger *log.Logger) Option {
	return func(s *Service) {
		if pub != nil {
			s.audit = &auditAdapter{publisher: pub, logger: logger}
		}
	}
}

// WithMetrics wires the Prometheus recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger wires the process logger for non-fatal bookkeeping errors.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// auditAdapter maps the service's emit signature onto audit events. Emit
// failures are logged, never propagated into the mutation path.
type auditAdapter struct {
	publisher *audit.Publisher
	logger    *log.Logger
}

func (a *auditAdapter) Emit(ctx context.Context, userID, accountID string, action models.ActionKind, stage models.Stage, eventID, reason string, retry bool) {
	err := a.publisher.Emit(ctx, audit.Event{
		UserID:    userID,
		AccountID: accountID,
		Action:    action,
		Stage:     stage,
		EventID:   eventID,
		Reason:    reason,
		Retry:     retry,
	})
	if err != nil && a.logger != nil {
		a.logger.Printf("emit audit event for %s/%s: %v", accountID, action, err)
	}
}
