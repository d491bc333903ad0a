package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into normalized errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrDuplicate: a record for the same key already exists
// - ErrInvalidTransition: mutation stage change violates the stage machine
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation and ledger failures, use pkg/errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnavailable       = errors.New("unavailable")
)
