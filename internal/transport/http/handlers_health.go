package httptransport

import (
	"encoding/json"
	"net/http"

	pkgerrors "loanconsole/pkg/errors"
)

type healthResponse struct {
	Status   string `json:"status"`
	Ledger   string `json:"ledger"`
	ReadOnly bool   `json:"readOnly"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Ledger: "ok", ReadOnly: h.mode.ReadOnly()}
	status := http.StatusOK
	if err := h.ledger.Health(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Ledger = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type readOnlyRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetReadOnly is the ops toggle for the degraded flag.
func (h *Handler) handleSetReadOnly(w http.ResponseWriter, r *http.Request) {
	var req readOnlyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.KindValidation, "invalid request body"))
		return
	}
	h.mode.SetReadOnly(req.Enabled)
	h.logger.Printf("read-only mode set to %t", req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"readOnly": h.mode.ReadOnly()})
}
