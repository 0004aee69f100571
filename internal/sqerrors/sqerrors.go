// Package sqerrors holds the sentinel error values and typed wrapper used
// across the engine, following the same errors.Is-compatible shape as
// server/serr.Error: a message plus an optional wrapped cause.
package sqerrors

import "errors"

var (
	// ErrUnknownRule is returned when a rule id not present in the grammar
	// is looked up.
	ErrUnknownRule = errors.New("no rule exists with the given id")

	// ErrInvariantViolation is raised (via panic, never returned) when a
	// debug assertion built with the sequitur_debug tag detects that a
	// grammar invariant no longer holds. It is a sentinel so callers that
	// recover the panic can still use errors.Is against the recovered
	// value.
	ErrInvariantViolation = errors.New("sequitur: grammar invariant violated")
)

// Error wraps a sentinel with additional context, remaining compatible with
// errors.Is against the wrapped sentinel.
type Error struct {
	msg   string
	cause error
}

// New returns an Error with msg as its message and cause as the sentinel it
// wraps.
func New(cause error, msg string) error {
	return &Error{msg: msg, cause: cause}
}

// Error returns the message, followed by the cause's message if the
// message was non-empty.
func (e *Error) Error() string {
	if e.msg == "" {
		return e.cause.Error()
	}
	return e.msg + ": " + e.cause.Error()
}

// Unwrap returns the wrapped cause, for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}
