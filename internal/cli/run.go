package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pakd/internal/tui"
	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/scheduler"
	"pakd/pkg/transaction"
)

// maxPrompts bounds how many key or license prompts one command may answer
// before giving up.
const maxPrompts = 4

// runOptions controls how a transaction is presented.
type runOptions struct {
	// quiet suppresses streamed package lines; the caller prints a summary.
	quiet bool
	// label is shown next to the spinner.
	label string
}

// run submits req and follows it to completion, answering signature and
// license prompts by installing the key or accepting the agreement and
// submitting req again.
func run(ctx context.Context, req transaction.Request, opts runOptions) (scheduler.Result, error) {
	for attempt := 0; ; attempt++ {
		res, err := follow(ctx, req, opts)
		if err != nil {
			return res, err
		}
		if res.Exit == backend.ExitSuccess || attempt >= maxPrompts {
			return res, outcome(res)
		}

		retry, err := answerPrompts(ctx, res)
		if err != nil {
			return res, err
		}
		if !retry {
			return res, outcome(res)
		}
		ui.InfoMsg("Retrying %s", req.Role)
	}
}

// follow submits req and waits for it, streaming events or showing the
// monitor. Ctrl-C requests cancellation instead of killing the process.
func follow(ctx context.Context, req transaction.Request, opts runOptions) (scheduler.Result, error) {
	id, err := sched.Submit(ctx, req)
	if err != nil {
		return scheduler.Result{}, err
	}
	logger.WithField("tid", id).Debugf("submitted %s", req.Role)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupts:
			ui.WarningMsg("Cancelling %s", id)
			if err := sched.Cancel(id); err != nil {
				logger.WithError(err).Debug("cancel failed")
			}
		case <-done:
		}
	}()

	if useTUI && ui.Interactive() {
		if err := tui.Run(sched, true, id); err != nil {
			return scheduler.Result{}, err
		}
		// Quitting the monitor early cancels the transaction.
		if tx, err := sched.Get(id); err == nil && !tx.State().Terminal() {
			_ = sched.Cancel(id)
		}
		return sched.Wait(ctx, id)
	}

	sub, err := sched.Subscribe(id)
	if err != nil {
		return scheduler.Result{}, err
	}
	defer sub.Close()

	label := opts.label
	if label == "" {
		label = string(req.Role)
	}
	sp := ui.NewSpinner(label)
	sp.Start()

	status := backend.StatusWait
	for ev := range sub.C {
		switch e := ev.(type) {
		case transaction.StatusChangedEvent:
			status = e.Status
			pct, _ := percentageOf(id)
			sp.Progress(status, pct)
		case transaction.PercentageEvent:
			sp.Progress(status, e.Percentage)
		case transaction.FinishedEvent:
		case transaction.PackageEvent:
			if !opts.quiet {
				sp.Stop()
				ui.PrintEvent(ev)
				sp.Start()
			}
		default:
			sp.Stop()
			ui.PrintEvent(ev)
			sp.Start()
		}
	}
	sp.Stop()

	res, err := sched.Wait(ctx, id)
	if err != nil {
		return res, err
	}
	if cfg.Output.Verbose {
		ui.MutedMsg("%s %s finished: %s in %s", res.ID, res.Role, res.Exit, res.Runtime)
	}
	return res, nil
}

func percentageOf(id string) (int, int) {
	tx, err := sched.Get(id)
	if err != nil {
		return backend.PercentageUnknown, 0
	}
	return tx.Percentage()
}

// outcome maps the terminal state onto the command's error.
func outcome(res scheduler.Result) error {
	switch res.State {
	case transaction.StateFinished:
		return nil
	case transaction.StateCancelled:
		return ErrTransactionCancelled
	}
	if res.Err != nil {
		return fmt.Errorf("%w: %s", ErrTransactionFailed, res.Err.Message)
	}
	return ErrTransactionFailed
}

// answerPrompts handles the signature and license events of a failed
// transaction. It reports whether the original request should be retried.
func answerPrompts(ctx context.Context, res scheduler.Result) (bool, error) {
	if res.Err == nil {
		return false, nil
	}

	retry := false
	for _, ev := range res.Events {
		switch e := ev.(type) {
		case transaction.SignatureRequiredEvent:
			if res.Err.Kind != backend.ErrorGPGFailure {
				continue
			}
			ok, err := confirm(func() (bool, error) { return ui.ConfirmSignature(e.RepoSignature) })
			if err != nil || !ok {
				return false, err
			}
			if err := answer(ctx, transaction.Request{
				Role:       backend.RoleInstallSignature,
				SigType:    e.Type,
				KeyID:      e.KeyID,
				PackageIDs: []string{e.PackageID.String()},
			}, "Importing key "+e.KeyID); err != nil {
				return false, err
			}
			retry = true

		case transaction.EulaRequiredEvent:
			if res.Err.Kind != backend.ErrorNoLicenseAgreement {
				continue
			}
			ok, err := confirm(func() (bool, error) { return ui.ConfirmEula(e.Eula) })
			if err != nil || !ok {
				return false, err
			}
			if err := answer(ctx, transaction.Request{
				Role:   backend.RoleAcceptEula,
				EulaID: e.ID,
			}, "Accepting "+e.ID); err != nil {
				return false, err
			}
			retry = true
		}
	}
	return retry, nil
}

// answer runs the transaction that satisfies a prompt.
func answer(ctx context.Context, req transaction.Request, label string) error {
	res, err := follow(ctx, req, runOptions{label: label})
	if err != nil {
		return err
	}
	return outcome(res)
}

func confirm(ask func() (bool, error)) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := ask()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrAborted
	}
	return true, nil
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTransactionCancelled), errors.Is(err, ErrAborted):
		return 2
	case errors.Is(err, scheduler.ErrInvalidParams), errors.Is(err, scheduler.ErrInvalidRole):
		return 3
	}
	return 1
}
