package cli

import "errors"

var (
	// ErrNoPackages is returned when no packages are specified.
	ErrNoPackages = errors.New("no packages specified")

	// ErrPackageNotFound is returned when a name does not resolve to any package.
	ErrPackageNotFound = errors.New("package not found")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")

	// ErrTransactionFailed is returned when a transaction ends in the error state.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrTransactionCancelled is returned when a transaction was cancelled.
	ErrTransactionCancelled = errors.New("transaction cancelled")
)
