package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"loanconsole/internal/reconcile/models"
)

type failedListResponse struct {
	Actions []models.FailedAction `json:"actions"`
}

type failedCountResponse struct {
	Count int `json:"count"`
}

func (h *Handler) handleFailedList(w http.ResponseWriter, r *http.Request) {
	actions, err := h.failed.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if actions == nil {
		actions = []models.FailedAction{}
	}
	writeJSON(w, http.StatusOK, failedListResponse{Actions: actions})
}

func (h *Handler) handleFailedCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.failed.ActiveCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, failedCountResponse{Count: count})
}

// handleFailedRetry bumps the retry counter and dispatches the stored
// request on the retry bus. The row disappears only when the handler's
// success path removes it, so a 202 here does not mean the retry worked.
func (h *Handler) handleFailedRetry(w http.ResponseWriter, r *http.Request) {
	if h.mode.ReadOnly() {
		writeReadOnly(w)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.mutations.RetryFailedAction(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "retry dispatched"})
}

func (h *Handler) handleFailedDismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.failed.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFailedClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.failed.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
