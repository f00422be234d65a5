package kernel

import "errors"

// ErrArithmetic is returned when a HighPrecision operation is mathematically
// undefined, e.g. division by zero.
var ErrArithmetic = errors.New("kernel: arithmetic error")

// ErrNotFound is returned when Remove is called with an EventId that does
// not identify an event currently held by the scheduler.
var ErrNotFound = errors.New("kernel: event not found")

// preconditionError is panicked for programmer errors: scheduling a
// negative delay, peeking an empty scheduler, or any other violation of a
// documented precondition. The typed value lets an embedder or test
// harness recover() and identify the failure kind rather than treating it
// as an ordinary returned error.
type preconditionError struct{ msg string }

func (e preconditionError) Error() string { return "kernel: precondition violated: " + e.msg }

func panicPrecondition(msg string) {
	panic(preconditionError{msg: msg})
}

// configConflictError is panicked when the process attempts to change the
// time resolution or scheduler backend after either has already been used.
type configConflictError struct{ msg string }

func (e configConflictError) Error() string { return "kernel: configuration conflict: " + e.msg }

func panicConfigConflict(msg string) {
	panic(configConflictError{msg: msg})
}
