package domain

import (
	"errors"
	"fmt"
)

// Precondition failures. Every engine operation checks its preconditions
// against committed state and aborts with one of these before any mutation
// or external transfer, so a failed call leaves custody untouched.
var (
	// ErrUnauthorized is returned when the caller lacks the required role
	// (seller, creator, joiner, asset owner).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when the operation is attempted from a
	// non-permitted status, e.g. buying a non-active order.
	ErrInvalidState = errors.New("invalid state")

	// ErrTimingViolation is returned when the operation falls outside its
	// allowed time window.
	ErrTimingViolation = errors.New("timing violation")

	// ErrAmountMismatch is returned when the submitted payment does not equal
	// the current price exactly.
	ErrAmountMismatch = errors.New("amount mismatch")

	// ErrAlreadyInState is returned for redundant transitions, e.g. a no-op
	// valve toggle or joining an already-joined lobby.
	ErrAlreadyInState = errors.New("already in state")

	// ErrNotFound is returned when the referenced order or lobby does not exist.
	ErrNotFound = errors.New("not found")
)

// Fault annotates a precondition failure with the operation and record it
// was raised for. Match the class with errors.Is against the sentinels above.
type Fault struct {
	Op     string // operation, e.g. "buyOrder"
	Entity string // "order" or "lobby"
	ID     uint64
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s %s %d: %v", f.Op, f.Entity, f.ID, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func NewFault(op, entity string, id uint64, err error) *Fault {
	return &Fault{Op: op, Entity: entity, ID: id, Err: err}
}
