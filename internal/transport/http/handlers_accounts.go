package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"loanconsole/internal/reconcile/models"
)

type pendingListResponse struct {
	Pending []models.PendingMutation `json:"pending"`
}

func (h *Handler) handleAccountSummary(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	summary, err := h.accounts.AccountSummary(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handlePendingList(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	pending := h.pending.ListPending(r.Context(), accountID)
	if pending == nil {
		pending = []models.PendingMutation{}
	}
	writeJSON(w, http.StatusOK, pendingListResponse{Pending: pending})
}
