// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrNotFound indicates a referenced user or quest does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed indicates an operation's invariant was violated
	// (assign from a non-holder, duplicate quest id, accomplish an
	// already-held quest, unarchive a non-archived quest).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidOrdering indicates a new event's timestamp precedes the
	// previous event's timestamp for the same user. A clock that runs
	// backward is a caller error, never silently clamped.
	ErrInvalidOrdering = errors.New("invalid event ordering")
)
