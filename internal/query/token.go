package query

import (
	"github.com/google/uuid"
)

// Token is an opaque cancellation handle handed out for one scheduled
// query run. Cancelling a Token is cooperative and is observable only
// through Cancelled() and Done(): neither Engine nor RunAll takes or checks
// a Token, and nothing preempts a compute function already running
// (spec.md's cancellation model is cooperative at block/query
// boundaries, not preemptive).
type Token struct {
	id     uuid.UUID
	cancel chan struct{}
}

// NewToken creates a fresh, not-yet-cancelled Token.
func NewToken() Token {
	return Token{id: uuid.New(), cancel: make(chan struct{})}
}

// String returns the token's uuid, for tracing and diagnostics.
func (t Token) String() string {
	return t.id.String()
}

// Cancel marks the token cancelled. Safe to call more than once.
func (t Token) Cancel() {
	select {
	case <-t.cancel:
	default:
		close(t.cancel)
	}
}

// Cancelled reports whether Cancel has been called.
func (t Token) Cancelled() bool {
	select {
	case <-t.cancel:
		return true
	default:
		return false
	}
}

// Done returns the channel that closes when the token is cancelled, for
// use in a select alongside other suspension points.
func (t Token) Done() <-chan struct{} {
	return t.cancel
}
