package service

import (
	"context"

	"loanconsole/internal/notify"
	"loanconsole/internal/reconcile/models"
)

// Invalidator drops cached reads for an account after a confirmed write.
type Invalidator interface {
	Invalidate(accountID string)
}

// Notifier surfaces mutation outcomes to the user.
type Notifier interface {
	Success(ctx context.Context, n notify.Notification)
	Failure(ctx context.Context, n notify.Notification)
}

// AuditEmitter records mutation lifecycle events.
type AuditEmitter interface {
	Emit(ctx context.Context, userID, accountID string, action models.ActionKind, stage models.Stage, eventID, reason string, retry bool)
}

// MetricsRecorder is the subset of reconciliation metrics the service touches.
type MetricsRecorder interface {
	IncrementSubmitted(action string)
	IncrementConfirmed(action string)
	IncrementFailed(kind string)
	IncrementRetries()
	SetFailedActionsActive(count int)
}

func notification(sub submission, title, message string) notify.Notification {
	return notify.Notification{
		Title:     title,
		Message:   message,
		AccountID: sub.accountID,
		Action:    sub.action,
	}
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(string) {}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, notify.Notification) {}
func (nopNotifier) Failure(context.Context, notify.Notification) {}

type nopAudit struct{}

func (nopAudit) Emit(context.Context, string, string, models.ActionKind, models.Stage, string, string, bool) {
}

type nopMetrics struct{}

func (nopMetrics) IncrementSubmitted(string)  {}
func (nopMetrics) IncrementConfirmed(string)  {}
func (nopMetrics) IncrementFailed(string)     {}
func (nopMetrics) IncrementRetries()          {}
func (nopMetrics) SetFailedActionsActive(int) {}
