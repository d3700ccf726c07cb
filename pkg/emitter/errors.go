package emitter

import (
	"errors"
	"fmt"
)

// Sentinel errors for argument validation. Both are returned synchronously,
// before any registry mutation.
var (
	// ErrInvalidListener indicates a nil listener was passed to On, Once or
	// RemoveListener.
	ErrInvalidListener = errors.New("listener must be a function")

	// ErrInvalidFilter indicates a result filter that is neither nil nor a
	// func(any) bool.
	ErrInvalidFilter = errors.New("filter must be a function")
)

// UnhandledError is the outcome of emitting "error" with no listener
// registered for it. When the emission payload was itself an error, Emit
// returns that error directly instead of an UnhandledError.
type UnhandledError struct {
	// Payload is the first emission argument, if one was supplied.
	Payload any
}

// Error implements the error interface.
func (e *UnhandledError) Error() string {
	if e.Payload != nil {
		return fmt.Sprintf("unhandled %q event: %v", EventError, e.Payload)
	}
	return fmt.Sprintf("unhandled %q event", EventError)
}

// PanicError wraps a non-error value recovered from a panicking listener.
// A listener that panics with an error value fails the emission with that
// error unwrapped.
type PanicError struct {
	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panic: %v", e.Value)
}
