package models

import "errors"

// Business-outcome errors surfaced to users. These are never retried
// automatically; callers respond with an explanation plus the re-derived
// current state.
var (
	// ErrNotFound signals a stale id: match, position token, or request record.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals the one-outstanding-request rule would be violated.
	ErrConflict = errors.New("conflicting active request")

	// ErrAlreadyRequested is Send's view of ErrConflict.
	ErrAlreadyRequested = errors.New("requester already has an active request for this match")

	// ErrInvalidState signals an operation not valid for the record's current status.
	ErrInvalidState = errors.New("operation not valid for current request status")

	// ErrAlreadyTerminal signals a transition on a record that was already decided.
	ErrAlreadyTerminal = errors.New("request already decided")

	// ErrNotPending signals a cancel that raced with an in-flight accept or reject.
	ErrNotPending = errors.New("request is no longer pending")

	// ErrSlotUnavailable signals an accept that lost the race for the last slot.
	ErrSlotUnavailable = errors.New("no slot remaining for this position")
)
