package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "loanconsole/pkg/errors"
	"loanconsole/pkg/platform/sentinel"
)

// errorResponse is the console's JSON error envelope: the normalized kind
// as the code, a human-readable message, and the support-quotable id plus
// copy-details blob for unknown failures.
type errorResponse struct {
	Error     string          `json:"error"`
	Message   string          `json:"message,omitempty"`
	ErrorID   string          `json:"errorId,omitempty"`
	Retryable bool            `json:"retryable,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so the
// JSON error envelope stays consistent across handlers.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "duplicate-pending",
			Message: "an identical action is already pending for this account",
		})
		return
	case errors.Is(err, sentinel.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   string(pkgerrors.KindNotFound),
			Message: "record not found",
		})
		return
	}

	if norm := pkgerrors.AsError(err); norm != nil {
		writeJSON(w, pkgerrors.ToHTTPStatus(norm.Kind), errorResponse{
			Error:     string(norm.Kind),
			Message:   norm.Message,
			ErrorID:   norm.ID,
			Retryable: norm.Kind.Retryable(),
			Details:   norm.Details(),
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: string(pkgerrors.KindUnknown),
	})
}

// writeReadOnly is the refusal every write path returns while the console
// is degraded.
func writeReadOnly(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Error:   "read-only",
		Message: "console is in read-only mode; writes are disabled",
	})
}
