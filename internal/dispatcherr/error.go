// Package dispatcherr provides the structured error type carried through
// the router, executor, storage, and capability layers.
package dispatcherr

import (
	"errors"
	"fmt"

	"github.com/dispatchd/dispatchd/internal/errkind"
)

// Error is a structured error carrying a closed errkind.Kind plus a
// human-readable message. It implements the standard error interface so it
// composes with fmt.Errorf("...: %w", err) and errors.As/errors.Is.
type Error struct {
	Kind    errkind.Kind
	Message string
	Wrapped error
}

// New constructs an Error of the given kind.
func New(kind errkind.Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping a lower-level cause.
func Wrap(kind errkind.Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: cause}
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// As reports whether err is (or wraps) a *Error and returns it.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf extracts the errkind.Kind of err if it is a *Error (or wraps one),
// otherwise returns errkind.ExecError as the conservative default.
func KindOf(err error) errkind.Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return errkind.ExecError
}
