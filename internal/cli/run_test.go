package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pakd/pkg/backend"
	"pakd/pkg/scheduler"
	"pakd/pkg/transaction"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		res  scheduler.Result
		want error
	}{
		{"finished", scheduler.Result{State: transaction.StateFinished}, nil},
		{"cancelled", scheduler.Result{State: transaction.StateCancelled}, ErrTransactionCancelled},
		{"failed", scheduler.Result{
			State: transaction.StateError,
			Err:   backend.Errorf(backend.ErrorGPGFailure, "untrusted"),
		}, ErrTransactionFailed},
		{"failed without error", scheduler.Result{State: transaction.StateError}, ErrTransactionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := outcome(tt.res)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOutcomeKeepsMessage(t *testing.T) {
	err := outcome(scheduler.Result{
		State: transaction.StateError,
		Err:   backend.Errorf(backend.ErrorPackageNotFound, "no such package"),
	})
	assert.Contains(t, err.Error(), "no such package")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(ErrTransactionCancelled))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("install: %w", ErrAborted)))
	assert.Equal(t, 3, ExitCode(fmt.Errorf("%w: bad id", scheduler.ErrInvalidParams)))
	assert.Equal(t, 1, ExitCode(ErrTransactionFailed))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}

func TestNewestPicksHighestVersion(t *testing.T) {
	ids := []backend.PackageID{
		{Name: "glib2", Version: "2.9.1", Arch: "i386", Data: "fedora"},
		{Name: "glib2", Version: "2.14.0", Arch: "i386", Data: "fedora"},
		{Name: "glib2", Version: "2.10.3", Arch: "i386", Data: "fedora"},
	}
	assert.Equal(t, "2.14.0", newest(ids).Version)
}
