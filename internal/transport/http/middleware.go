package httptransport

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"loanconsole/pkg/requestcontext"
)

// StaffUserHeader names the acting staff user forwarded by the console
// frontend. Identity verification happens upstream; this layer only needs
// the id for idempotency keys and audit events.
const StaffUserHeader = "X-Staff-User"

// RequestMetadata injects the staff user, a request id, and the request
// time into the context for services downstream.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithUserID(ctx, r.Header.Get(StaffUserHeader))
		ctx = requestcontext.WithRequestID(ctx, uuid.NewString())
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
