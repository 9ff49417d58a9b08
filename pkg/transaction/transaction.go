// Package transaction implements a single in-flight package operation: its
// state machine, its cancellation flag and progress, and the ordered log of
// events it emits to observers.
package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pakd/pkg/backend"
)

// DefaultCancelGrace is how long a honoured cancellation may take before the
// transaction is forced into the Cancelled state.
const DefaultCancelGrace = 1500 * time.Millisecond

// Message used for the error event of a cancelled transaction.
const cancelledMessage = "The task was stopped successfully"

// Options configures a Transaction.
type Options struct {
	Locale      string
	CancelGrace time.Duration
	Logger      *logrus.Entry
}

// Transaction is one client request tracked from admission to its terminal
// state. All methods are safe for concurrent use.
type Transaction struct {
	id      string
	req     Request
	locale  string
	grace   time.Duration
	log     *logrus.Entry
	created time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	cond *sync.Cond

	state           State
	status          backend.Status
	percentage      int
	subPercentage   int
	allowCancel     bool
	cancelRequested bool
	cancelHonoured  bool
	started         time.Time
	ended           time.Time
	exit            backend.Exit
	failure         *backend.Error

	events   []Event
	seen     map[PackageEvent]struct{}
	finished bool
	done     chan struct{}
	timer    *time.Timer
}

// New creates a pending transaction.
func New(id string, req Request, opts Options) *Transaction {
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = DefaultCancelGrace
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transaction{
		id:          id,
		req:         req,
		locale:      opts.Locale,
		grace:       opts.CancelGrace,
		log:         log.WithFields(logrus.Fields{"tid": id, "role": req.Role}),
		created:     time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		state:       StatePending,
		status:      backend.StatusWait,
		percentage:  backend.PercentageUnknown,
		allowCancel: true,
		seen:        make(map[PackageEvent]struct{}),
		done:        make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *Transaction) ID() string            { return t.id }
func (t *Transaction) Request() Request      { return t.req }
func (t *Transaction) Role() backend.Role    { return t.req.Role }
func (t *Transaction) Created() time.Time    { return t.created }
func (t *Transaction) Done() <-chan struct{} { return t.done }

func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transaction) Status() backend.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Percentage returns the overall and sub-item progress.
func (t *Transaction) Percentage() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentage, t.subPercentage
}

func (t *Transaction) AllowCancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowCancel
}

func (t *Transaction) CancelRequested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelRequested
}

// Exit returns the exit code. It is empty until the transaction finishes.
func (t *Transaction) Exit() backend.Exit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exit
}

// Err returns the runtime error reported by the adapter, if any.
func (t *Transaction) Err() *backend.Error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// Runtime returns how long the transaction has been running, or ran.
func (t *Transaction) Runtime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runtimeLocked()
}

func (t *Transaction) runtimeLocked() time.Duration {
	switch {
	case t.started.IsZero():
		return 0
	case t.ended.IsZero():
		return time.Since(t.started)
	}
	return t.ended.Sub(t.started)
}

// Events returns a copy of the result log.
func (t *Transaction) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Start moves a pending transaction to Running.
func (t *Transaction) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.moveLocked(StateRunning); err != nil {
		return err
	}
	t.started = time.Now()
	t.log.Debug("transaction started")
	return nil
}

// Finish moves a running transaction to Finished. It is a no-op when the
// transaction has already been forced into a terminal state.
func (t *Transaction) Finish() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminateLocked(StateFinished, backend.ExitSuccess, nil)
}

// Fail records err as the transaction's error event and moves it to Error.
func (t *Transaction) Fail(err *backend.Error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminateLocked(StateError, backend.ExitFailed, err)
}

// MarkCancelled moves the transaction to Cancelled, reporting the
// cancellation through the error event channel.
func (t *Transaction) MarkCancelled() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminateLocked(StateCancelled, backend.ExitCancelled,
		&backend.Error{Kind: backend.ErrorTransactionCancelled, Message: cancelledMessage})
}

// RequestCancel sets the cancel-requested flag. It reports whether the
// request was honoured right away: a pending transaction is cancelled on the
// spot, a running one is signalled when cancellation is currently allowed.
// Otherwise the request is kept and honoured if the adapter allows
// cancellation again before it finishes.
func (t *Transaction) RequestCancel() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		return false, ErrFinished
	}
	t.cancelRequested = true

	if t.state == StatePending {
		err := t.terminateLocked(StateCancelled, backend.ExitCancelled,
			&backend.Error{Kind: backend.ErrorTransactionCancelled, Message: cancelledMessage})
		return err == nil, err
	}
	if !t.allowCancel {
		t.log.Info("cancel deferred: transaction is in a non-cancellable phase")
		return false, nil
	}
	t.honourCancelLocked()
	return true, nil
}

// honourCancelLocked signals the adapter and arms the grace timer. The timer
// only forces the Cancelled state while cancellation is still allowed.
func (t *Transaction) honourCancelLocked() {
	if t.cancelHonoured {
		return
	}
	t.cancelHonoured = true
	t.cancel()
	t.log.Info("cancel requested")

	t.timer = time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.state != StateRunning || !t.allowCancel {
			return
		}
		t.log.Warn("adapter did not stop within the cancel grace period")
		_ = t.terminateLocked(StateCancelled, backend.ExitCancelled,
			&backend.Error{Kind: backend.ErrorTransactionCancelled, Message: cancelledMessage})
	})
}

func (t *Transaction) moveLocked(to State) error {
	if !canMove(t.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, to)
	}
	t.state = to
	return nil
}

// terminateLocked emits the optional error event and the Finished event,
// then closes the log. Terminating twice is not an error; the first
// terminal state wins.
func (t *Transaction) terminateLocked(to State, exit backend.Exit, failure *backend.Error) error {
	if t.state.Terminal() {
		return nil
	}
	if err := t.moveLocked(to); err != nil {
		return err
	}
	if failure != nil {
		t.failure = failure
		t.appendLocked(ErrorEvent{ErrorKind: failure.Kind, Message: failure.Message})
	}

	now := time.Now()
	if t.started.IsZero() {
		t.started = now
	}
	t.ended = now
	t.exit = exit
	t.status = backend.StatusFinished
	t.allowCancel = false

	t.appendLocked(FinishedEvent{Exit: exit, Runtime: t.runtimeLocked()})
	t.finished = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.cancel()
	close(t.done)
	t.cond.Broadcast()

	t.log.WithFields(logrus.Fields{
		"state":   to,
		"exit":    exit,
		"runtime": t.ended.Sub(t.started),
	}).Info("transaction finished")
	return nil
}

// emit appends ev to the log. Duplicate package events are dropped.
func (t *Transaction) emit(ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		t.log.WithField("event", ev.Kind()).Error("event emitted after Finished")
		return ErrFinished
	}
	if pe, ok := ev.(PackageEvent); ok {
		key := PackageEvent{Info: pe.Info, ID: pe.ID}
		if _, dup := t.seen[key]; dup {
			t.log.WithField("package", pe.ID.String()).Debug("ignoring duplicate package event")
			return nil
		}
		t.seen[key] = struct{}{}
	}
	t.appendLocked(ev)
	return nil
}

func (t *Transaction) appendLocked(ev Event) {
	t.events = append(t.events, ev)
	t.cond.Broadcast()
}

// Job returns the handle passed to the backend adapter.
func (t *Transaction) Job() backend.Job {
	return &job{t: t}
}

func (t *Transaction) setAllowCancel(allow bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.allowCancel = allow
	if allow && t.cancelRequested {
		t.honourCancelLocked()
	}
}

func (t *Transaction) cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelRequested && t.allowCancel
}

func (t *Transaction) setStatus(status backend.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished || t.status == status {
		return
	}
	t.status = status
	t.appendLocked(StatusChangedEvent{Status: status})
}

func (t *Transaction) setPercentage(percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	percent = clampPercent(percent)
	if t.finished || t.percentage == percent {
		return
	}
	t.percentage = percent
	t.appendLocked(PercentageEvent{Percentage: t.percentage, SubPercentage: t.subPercentage})
}

func (t *Transaction) setSubPercentage(percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	percent = clampPercent(percent)
	if t.finished || t.subPercentage == percent {
		return
	}
	t.subPercentage = percent
	t.appendLocked(PercentageEvent{Percentage: t.percentage, SubPercentage: t.subPercentage})
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return backend.PercentageUnknown
	case p > 100:
		return 100
	}
	return p
}
