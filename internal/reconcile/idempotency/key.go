// Package idempotency generates the client-side tokens the ledger uses to
// recognize and deduplicate a retried identical request.
package idempotency

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"loanconsole/internal/reconcile/models"
)

// anonymousUser stands in when no staff user id is available. Key generation
// must never fail.
const anonymousUser = "anonymous"

// NewKey returns a token unique across calls for the same (user, action).
// It embeds the user, the action kind, a nanosecond timestamp, and a random
// suffix, and doubles as the transient store's mutation identifier.
func NewKey(userID string, action models.ActionKind) string {
	if userID == "" {
		userID = anonymousUser
	}
	return fmt.Sprintf("%s:%s:%d:%s", userID, action, time.Now().UnixNano(), uuid.NewString()[:8])
}
