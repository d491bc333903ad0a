// Package models holds the write-reconciliation domain types: pending
// mutations with their stage machine, durable failed actions, and the
// closed set of mutation kinds the console can submit.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind is the closed set of mutations the console submits to the ledger.
type ActionKind string

const (
	ActionWaiveFee        ActionKind = "waive-fee"
	ActionRecordRepayment ActionKind = "record-repayment"
	ActionWriteOffRequest ActionKind = "write-off-request"
	ActionWriteOffCancel  ActionKind = "write-off-cancel"
	ActionWriteOffApprove ActionKind = "write-off-approve"
	ActionWriteOffReject  ActionKind = "write-off-reject"
)

// ParseActionKind validates and returns an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch k := ActionKind(s); k {
	case ActionWaiveFee, ActionRecordRepayment, ActionWriteOffRequest,
		ActionWriteOffCancel, ActionWriteOffApprove, ActionWriteOffReject:
		return k, nil
	default:
		return "", fmt.Errorf("unknown action kind: %s", s)
	}
}

func (k ActionKind) String() string { return string(k) }

// Stage is the lifecycle phase of a single mutation attempt.
type Stage string

const (
	StageOptimistic Stage = "optimistic"
	StageConfirmed  Stage = "confirmed"
	StageFailed     Stage = "failed"
)

// CanTransition reports whether a stage change is legal. The only legal
// transitions are optimistic→confirmed and optimistic→failed; attempts never
// move backwards or skip the optimistic stage.
func (s Stage) CanTransition(to Stage) bool {
	return s == StageOptimistic && (to == StageConfirmed || to == StageFailed)
}

// PendingMutation is one in-flight or recently-resolved write attempt.
// It lives only in the transient store and is never persisted.
type PendingMutation struct {
	ID           string     `json:"id"` // idempotency key of the attempt
	AccountID    string     `json:"accountId"`
	Action       ActionKind `json:"action"`
	Stage        Stage      `json:"stage"`
	Amount       float64    `json:"amount"`
	CreatedAt    time.Time  `json:"createdAt"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// FailedAction is a durable record of a mutation that never reached
// confirmed. Params retains the original request payload so a retry can
// resubmit it unchanged.
type FailedAction struct {
	ID           string          `json:"id"`
	Type         ActionKind      `json:"type"`
	AccountID    string          `json:"accountId"`
	AccountLabel string          `json:"accountLabel,omitempty"`
	Params       json.RawMessage `json:"params"`
	ErrorMessage string          `json:"errorMessage"`
	Timestamp    time.Time       `json:"timestamp"`
	RetryCount   int             `json:"retryCount"`
}

// Expired reports whether the record is past its time-to-live as of now.
func (f FailedAction) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(f.Timestamp) > ttl
}

// RecentCustomer is a privacy-constrained view-history record: the customer
// id and when it was last viewed, nothing else.
type RecentCustomer struct {
	CustomerID string    `json:"customerId"`
	ViewedAt   time.Time `json:"viewedAt"`
}
