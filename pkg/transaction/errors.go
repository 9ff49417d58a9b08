package transaction

import "errors"

var (
	// ErrFinished is returned when an event is emitted after Finished.
	ErrFinished = errors.New("transaction already finished")

	// ErrInvalidTransition is returned for a state change the machine does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
)
