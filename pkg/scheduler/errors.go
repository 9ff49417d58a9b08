package scheduler

import "errors"

var (
	// ErrInvalidRole is returned when the backend does not implement a role.
	ErrInvalidRole = errors.New("role not supported by backend")

	// ErrInvalidParams is returned when required parameters are missing or malformed.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrNotFound is returned for an unknown transaction id.
	ErrNotFound = errors.New("transaction not found")

	// ErrAlreadyFinished is returned when cancelling a finished transaction.
	ErrAlreadyFinished = errors.New("transaction already finished")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("scheduler closed")
)
