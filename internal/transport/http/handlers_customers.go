package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"loanconsole/internal/reconcile/models"
	pkgerrors "loanconsole/pkg/errors"
)

type recentListResponse struct {
	Customers []models.RecentCustomer `json:"customers"`
}

func (h *Handler) handleRecentList(w http.ResponseWriter, r *http.Request) {
	customers := h.history.List(r.Context())
	if customers == nil {
		customers = []models.RecentCustomer{}
	}
	writeJSON(w, http.StatusOK, recentListResponse{Customers: customers})
}

func (h *Handler) handleRecentRecord(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		writeError(w, pkgerrors.New(pkgerrors.KindValidation, "customer id is required"))
		return
	}
	if err := h.history.RecordView(r.Context(), customerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
