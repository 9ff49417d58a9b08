package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPackageID is returned when a package id string is malformed.
	ErrInvalidPackageID = errors.New("invalid package id")

	// ErrInvalidGroup is returned for an unknown group name.
	ErrInvalidGroup = errors.New("invalid group")

	// ErrInvalidFilter is returned for an unknown filter name.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrContradictoryFilter is returned when a filter set contains both halves of a pair.
	ErrContradictoryFilter = errors.New("contradictory filter")

	// ErrCancelled is returned by an adapter that stopped early because the
	// transaction was cancelled.
	ErrCancelled = errors.New("transaction cancelled")
)

// Error is a runtime failure reported by an adapter. It becomes the error
// event of the transaction.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Errorf creates an Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsError extracts an *Error from err. Unknown errors are reported as internal.
func AsError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return &Error{Kind: ErrorInternal, Message: err.Error()}
}
