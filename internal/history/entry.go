// Package history keeps a bounded record of finished transactions in BoltDB.
package history

import (
	"fmt"
	"time"

	"pakd/pkg/backend"
)

// Entry represents one finished transaction.
type Entry struct {
	ID        string        `json:"id"` // Transaction id
	Timestamp time.Time     `json:"timestamp"`
	Role      backend.Role  `json:"role"`
	Backend   string        `json:"backend"`
	Succeeded bool          `json:"succeeded"`
	Exit      backend.Exit  `json:"exit"`
	Duration  time.Duration `json:"duration"`
	Data      string        `json:"data,omitempty"` // Request arguments
	Error     string        `json:"error,omitempty"`
}

// NewEntry creates a new history entry stamped with the current time.
func NewEntry(id string, role backend.Role, backendName string) *Entry {
	return &Entry{
		ID:        id,
		Timestamp: time.Now(),
		Role:      role,
		Backend:   backendName,
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Succeeded = true
	e.Exit = backend.ExitSuccess
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(exit backend.Exit, err error) {
	e.Succeeded = false
	e.Exit = exit
	if err != nil {
		e.Error = err.Error()
	}
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a brief summary of the transaction.
func (e *Entry) Summary() string {
	status := string(e.Exit)
	if status == "" {
		status = "unknown"
	}

	if e.Data == "" {
		return fmt.Sprintf("%s %s (%s)", e.FormatTime(), e.Role, status)
	}
	return fmt.Sprintf("%s %s %s [%s] (%s)", e.FormatTime(), e.Role, e.Data, e.Backend, status)
}
