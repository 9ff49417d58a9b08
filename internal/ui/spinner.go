package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"pakd/pkg/backend"
)

// Spinner wraps the spinner library for consistent styling. When the
// terminal is not interactive it does nothing.
type Spinner struct {
	s       *spinner.Spinner
	message string
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	if !Interactive() {
		return &Spinner{message: message}
	}

	charSet := spinner.CharSets[14] // ⣾⣽⣻⢿⡿⣟⣯⣷
	if !UseUnicode {
		charSet = spinner.CharSets[0] // |/-\
	}

	s := spinner.New(charSet, 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	if UseColors {
		_ = s.Color("cyan")
	}

	return &Spinner{s: s, message: message}
}

// Start starts the spinner.
func (sp *Spinner) Start() {
	if sp.s != nil {
		sp.s.Start()
	}
}

// Stop stops the spinner.
func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}

// Success stops the spinner with a success message.
func (sp *Spinner) Success(message string) {
	sp.Stop()
	SuccessMsg(message)
}

// Error stops the spinner with an error message.
func (sp *Spinner) Error(message string) {
	sp.Stop()
	ErrorMsg(message)
}

// Progress updates the suffix with the transaction's status and percentage.
func (sp *Spinner) Progress(status backend.Status, percent int) {
	if sp.s == nil {
		return
	}
	suffix := fmt.Sprintf(" %s [%s]", sp.message, status)
	if percent != backend.PercentageUnknown {
		suffix = fmt.Sprintf(" %s [%s %d%%]", sp.message, status, percent)
	}
	sp.s.Lock()
	sp.s.Suffix = suffix
	sp.s.Unlock()
}
