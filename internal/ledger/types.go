package ledger

import (
	"encoding/json"
	"time"
)

// Request payloads for the ledger's mutation endpoints. Field names follow
// the ledger's JSON contract.

type WaiveFeeRequest struct {
	LoanAccountID string  `json:"loanAccountId"`
	WaiverAmount  float64 `json:"waiverAmount"`
	Reason        string  `json:"reason"`
	ApprovedBy    string  `json:"approvedBy"`
}

type RepaymentRequest struct {
	LoanAccountID    string  `json:"loanAccountId"`
	Amount           float64 `json:"amount"`
	PaymentID        string  `json:"paymentId"`
	PaymentMethod    string  `json:"paymentMethod"`
	PaymentReference string  `json:"paymentReference"`
}

type WriteOffRequest struct {
	LoanAccountID string  `json:"loanAccountId"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
	RequestedBy   string  `json:"requestedBy"`
}

// WriteOffDecision covers cancel, approve, and reject of a pending write-off.
type WriteOffDecision struct {
	LoanAccountID string `json:"loanAccountId"`
	WriteOffID    string `json:"writeOffId"`
	DecidedBy     string `json:"decidedBy"`
	Comment       string `json:"comment,omitempty"`
}

// Transaction is the ledger's record of a posted financial transaction.
type Transaction struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	PostedAt  time.Time `json:"postedAt"`
	Reference string    `json:"reference,omitempty"`
}

// Allocation is the repayment split the ledger reports back.
type Allocation struct {
	AllocatedToFees      float64 `json:"allocatedToFees"`
	AllocatedToPrincipal float64 `json:"allocatedToPrincipal"`
	Overpayment          float64 `json:"overpayment"`
}

// MutationResponse is the common success envelope for write endpoints.
type MutationResponse struct {
	Success     bool         `json:"success"`
	Transaction *Transaction `json:"transaction,omitempty"`
	EventID     string       `json:"eventId"`
	Allocation  *Allocation  `json:"allocation,omitempty"`
}

// AccountSummary is the read-side view cached by the query cache.
type AccountSummary struct {
	AccountID    string    `json:"accountId"`
	CustomerID   string    `json:"customerId"`
	Principal    float64   `json:"principal"`
	FeesAccrued  float64   `json:"feesAccrued"`
	Bucket       string    `json:"bucket"`
	DaysPastDue  int       `json:"daysPastDue"`
	Status       string    `json:"status"`
	AsOf         time.Time `json:"asOf"`
}

// errorEnvelope is the ledger's JSON error body.
type errorEnvelope struct {
	Error   string          `json:"error"`
	Message string          `json:"message,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}
