// Package ledger is the HTTP client for the remote ledger service, the
// external system of record for loan financial transactions. The client
// normalizes every failure into the pkg/errors taxonomy; raw transport
// errors never leave this package.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pkgerrors "loanconsole/pkg/errors"
)

// DefaultTimeout bounds every ledger request. Once sent, a write is not
// abortable; the timeout only abandons local bookkeeping.
const DefaultTimeout = 10 * time.Second

// IdempotencyHeader carries the client-generated key the ledger uses to
// deduplicate retried identical requests. Exactly-once delivery depends on
// the ledger honoring it; this layer cannot enforce that alone.
const IdempotencyHeader = "Idempotency-Key"

// Client calls the ledger's JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// New constructs a ledger client. timeout <= 0 falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("loanconsole/ledger"),
	}
}

// WaiveFee posts a fee waiver against a loan account.
func (c *Client) WaiveFee(ctx context.Context, req WaiveFeeRequest, idempotencyKey string) (*MutationResponse, error) {
	return c.postMutation(ctx, "/api/ledger/waive-fee", req, idempotencyKey)
}

// RecordRepayment posts a repayment and returns the allocation breakdown.
func (c *Client) RecordRepayment(ctx context.Context, req RepaymentRequest, idempotencyKey string) (*MutationResponse, error) {
	return c.postMutation(ctx, "/api/ledger/repayment", req, idempotencyKey)
}

// SubmitWriteOff raises a write-off request for approval.
func (c *Client) SubmitWriteOff(ctx context.Context, req WriteOffRequest, idempotencyKey string) (*MutationResponse, error) {
	return c.postMutation(ctx, "/api/ledger/write-off", req, idempotencyKey)
}

// CancelWriteOff withdraws a pending write-off request.
func (c *Client) CancelWriteOff(ctx context.Context, req WriteOffDecision, idempotencyKey string) (*MutationResponse, error) {
	return c.postMutation(ctx, "/api/ledger/write-off/cancel", req, idempotencyKey)
}

// ApproveWriteOff approves a pending write-off request.
func (c *Client) ApproveWriteOff(ctx context.Context, req WriteOffDecision, idempotencyKey string) (*MutationResponse, error) {
	return c.postMutation(ctx, "/api/ledger/write-off/approve", req, idempotencyKey)
}

// RejectWriteOff rejects a pending write-off request.
func (c *Client) RejectWriteOff(ctx context.Context, req WriteOffDecision, idempotencyKey string) (*MutationResponse, error) {
	return c.postMutation(ctx, "/api/ledger/write-off/reject", req, idempotencyKey)
}

// AccountSummary fetches the read-side view of one loan account.
func (c *Client) AccountSummary(ctx context.Context, accountID string) (*AccountSummary, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.AccountSummary",
		trace.WithAttributes(attribute.String("account.id", accountID)))
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/ledger/accounts/"+url.PathEscape(accountID), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.KindUnknown, "build account summary request")
	}

	var summary AccountSummary
	if err := c.do(httpReq, &summary); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &summary, nil
}

// Health pings the ledger so the console's health endpoint can report
// reachability.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ledger/health", nil)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.KindUnknown, "build health request")
	}
	return c.do(httpReq, nil)
}

func (c *Client) postMutation(ctx context.Context, path string, body any, idempotencyKey string) (*MutationResponse, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.mutation",
		trace.WithAttributes(attribute.String("ledger.path", path)))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.KindUnknown, "marshal ledger request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.KindUnknown, "build ledger request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set(IdempotencyHeader, idempotencyKey)
	}

	var resp MutationResponse
	if err := c.do(httpReq, &resp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &resp, nil
}

// do executes the request and normalizes failures. Non-2xx responses are
// mapped from the status and error envelope; transport failures and
// timeouts become their network kinds.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Normalize(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorEnvelope
		// A malformed error body still maps by status.
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		if envelope.Message == "" && envelope.Error == "" {
			envelope.Message = fmt.Sprintf("ledger returned status %d", resp.StatusCode)
		}
		return pkgerrors.FromStatus(resp.StatusCode, envelope.Error, envelope.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.KindUnknown, "decode ledger response")
	}
	return nil
}
