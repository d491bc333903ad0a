package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"loanconsole/internal/ledger"
	pkgerrors "loanconsole/pkg/errors"
)

// Mutation request DTOs carry the ledger payload plus the human-friendly
// account label the failed-action panel displays.

type waiveFeeRequest struct {
	ledger.WaiveFeeRequest
	AccountLabel string `json:"accountLabel,omitempty"`
}

type repaymentRequest struct {
	ledger.RepaymentRequest
	AccountLabel string `json:"accountLabel,omitempty"`
}

type writeOffRequest struct {
	ledger.WriteOffRequest
	AccountLabel string `json:"accountLabel,omitempty"`
}

type writeOffDecisionRequest struct {
	ledger.WriteOffDecision
	AccountLabel string `json:"accountLabel,omitempty"`
}

func (h *Handler) handleWaiveFee(w http.ResponseWriter, r *http.Request) {
	if h.mode.ReadOnly() {
		writeReadOnly(w)
		return
	}
	var req waiveFeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.mutations.WaiveFee(r.Context(), req.WaiveFeeRequest, req.AccountLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRepayment(w http.ResponseWriter, r *http.Request) {
	if h.mode.ReadOnly() {
		writeReadOnly(w)
		return
	}
	var req repaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.mutations.RecordRepayment(r.Context(), req.RepaymentRequest, req.AccountLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleWriteOffSubmit(w http.ResponseWriter, r *http.Request) {
	if h.mode.ReadOnly() {
		writeReadOnly(w)
		return
	}
	var req writeOffRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.mutations.SubmitWriteOff(r.Context(), req.WriteOffRequest, req.AccountLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleWriteOffCancel(w http.ResponseWriter, r *http.Request) {
	h.handleWriteOffDecision(w, r, h.mutations.CancelWriteOff)
}

func (h *Handler) handleWriteOffApprove(w http.ResponseWriter, r *http.Request) {
	h.handleWriteOffDecision(w, r, h.mutations.ApproveWriteOff)
}

func (h *Handler) handleWriteOffReject(w http.ResponseWriter, r *http.Request) {
	h.handleWriteOffDecision(w, r, h.mutations.RejectWriteOff)
}

func (h *Handler) handleWriteOffDecision(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, req ledger.WriteOffDecision, accountLabel string) (*ledger.MutationResponse, error)) {
	if h.mode.ReadOnly() {
		writeReadOnly(w)
		return
	}
	var req writeOffDecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := decide(r.Context(), req.WriteOffDecision, req.AccountLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode parses a JSON body, translating parse failures into the
// validation error envelope.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.KindValidation, "invalid request body"))
		return false
	}
	return true
}
