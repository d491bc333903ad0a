package testutil

import (
	"net/http"
	"time"

	"loanconsole/pkg/requestcontext"
)

// WithStaffUser attaches a staff user ID to the request context.
// This simulates what the request metadata middleware does in production.
func WithStaffUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithRequestTime pins the request clock, letting tests control TTL and
// expiry behaviour deterministically.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
