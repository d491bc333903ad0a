// Package opmode holds the console's read-only/degraded flag. When set,
// write submissions and retry dispatch are refused; reads keep working.
package opmode

import "sync/atomic"

// Mode is a process-wide operational flag, safe for concurrent access.
type Mode struct {
	readOnly atomic.Bool
}

// New constructs a Mode with the given initial read-only state.
func New(readOnly bool) *Mode {
	m := &Mode{}
	m.readOnly.Store(readOnly)
	return m
}

// ReadOnly reports whether writes are currently refused.
func (m *Mode) ReadOnly() bool { return m.readOnly.Load() }

// SetReadOnly flips the flag at runtime (ops toggle).
func (m *Mode) SetReadOnly(v bool) { m.readOnly.Store(v) }
