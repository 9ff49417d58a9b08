// Package scheduler admits transaction requests, enforces mutual exclusion
// between mutating operations and drives each transaction through the
// loaded backend.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"pakd/internal/history"
	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

const defaultArchiveSize = 64

// History stores records of finished transactions.
type History interface {
	Record(entry *history.Entry) error
	List(limit int) ([]history.Entry, error)
}

// Options configures a Scheduler.
type Options struct {
	Locale      string
	CancelGrace time.Duration

	// ArchiveSize is the number of finished transactions kept for Get and
	// Subscribe after they leave the active set.
	ArchiveSize int

	// History receives a record for every finished transaction. Optional.
	History History

	Logger *logrus.Logger
}

// Result is the outcome of a finished transaction.
type Result struct {
	ID      string
	Role    backend.Role
	State   transaction.State
	Exit    backend.Exit
	Err     *backend.Error
	Runtime time.Duration
	Events  []transaction.Event
}

// Packages returns the package events of the result.
func (r Result) Packages() []transaction.PackageEvent {
	var out []transaction.PackageEvent
	for _, ev := range r.Events {
		if pe, ok := ev.(transaction.PackageEvent); ok {
			out = append(out, pe)
		}
	}
	return out
}

type entry struct {
	seq  uint64
	tx   *transaction.Transaction
	call *call
}

func (e *entry) mutating() bool {
	return e.call.req.Role.Mutating()
}

// Scheduler is safe for concurrent use. Admission decisions are made under
// a single lock that is never held while an adapter runs.
type Scheduler struct {
	backend backend.Backend
	caps    *backend.Capabilities
	opts    Options
	log     *logrus.Entry
	txLog   *logrus.Entry

	mu        sync.Mutex
	seq       uint64
	closed    bool
	active    map[string]*entry
	queue     []*entry // pending mutations, FIFO
	waiting   []*entry // queries held back by a running mutation
	exclusive *entry
	queries   map[string]*entry
	archive   *lru.Cache[string, *transaction.Transaction]

	wg sync.WaitGroup
}

// New initializes b and returns a scheduler dispatching to it.
func New(ctx context.Context, b backend.Backend, opts Options) (*Scheduler, error) {
	if opts.ArchiveSize <= 0 {
		opts.ArchiveSize = defaultArchiveSize
	}
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = transaction.DefaultCancelGrace
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	archive, err := lru.New[string, *transaction.Transaction](opts.ArchiveSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	if err := b.Initialize(ctx, opts.Locale); err != nil {
		return nil, fmt.Errorf("failed to initialize backend %s: %w", b.Name(), err)
	}

	s := &Scheduler{
		backend: b,
		caps:    backend.NewCapabilities(b),
		opts:    opts,
		log:     logger.WithField("component", "scheduler"),
		txLog:   logger.WithField("component", "transaction"),
		active:  make(map[string]*entry),
		queries: make(map[string]*entry),
		archive: archive,
	}
	s.log.WithFields(logrus.Fields{
		"backend":         b.Name(),
		"roles":           len(s.caps.Roles()),
		"exclusive_cache": s.caps.ExclusiveCache(),
	}).Info("backend loaded")
	return s, nil
}

// Capabilities returns what the loaded backend supports.
func (s *Scheduler) Capabilities() *backend.Capabilities {
	return s.caps
}

// Backend returns the loaded backend.
func (s *Scheduler) Backend() backend.Backend {
	return s.backend
}

func (s *Scheduler) nextIDLocked() string {
	s.seq++
	return fmt.Sprintf("/%d_%s", s.seq, uuid.New().String()[:8])
}

// Submit validates req and admits a new transaction, returning its id.
// Requests that fail validation are rejected without creating anything.
// Mutating requests never fail because another one is running; they queue.
func (s *Scheduler) Submit(ctx context.Context, req transaction.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := validate(s.caps, req)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	id := s.nextIDLocked()
	e := &entry{
		seq: s.seq,
		tx: transaction.New(id, c.req, transaction.Options{
			Locale:      s.opts.Locale,
			CancelGrace: s.opts.CancelGrace,
			Logger:      s.txLog,
		}),
		call: c,
	}
	s.active[id] = e

	switch {
	case e.mutating():
		s.queue = append(s.queue, e)
	case s.caps.ExclusiveCache() && s.exclusive != nil:
		s.waiting = append(s.waiting, e)
	default:
		s.startLocked(e)
	}
	s.log.WithFields(logrus.Fields{"tid": id, "role": req.Role}).Debug("transaction admitted")
	s.scheduleLocked()
	return id, nil
}

// scheduleLocked starts whatever the exclusivity rules allow.
func (s *Scheduler) scheduleLocked() {
	for s.exclusive == nil && len(s.queue) > 0 {
		head := s.queue[0]
		if head.tx.State().Terminal() {
			s.queue = s.queue[1:]
			s.retireLocked(head)
			s.recordAsync(head.tx)
			continue
		}
		if s.caps.ExclusiveCache() && len(s.queries) > 0 {
			break
		}
		s.queue = s.queue[1:]
		s.startLocked(head)
	}

	if s.caps.ExclusiveCache() && s.exclusive != nil {
		return
	}
	waiting := s.waiting
	s.waiting = nil
	for _, e := range waiting {
		s.startLocked(e)
	}
}

func (s *Scheduler) startLocked(e *entry) {
	if err := e.tx.Start(); err != nil {
		// Cancelled while pending.
		s.retireLocked(e)
		s.recordAsync(e.tx)
		return
	}
	if e.mutating() {
		s.exclusive = e
	} else {
		s.queries[e.tx.ID()] = e
	}
	s.wg.Add(1)
	go s.run(e)
}

func (s *Scheduler) run(e *entry) {
	defer s.wg.Done()

	err := s.dispatch(e.tx.Job(), e.call)
	s.finalize(e.tx, err)

	s.mu.Lock()
	if s.exclusive == e {
		s.exclusive = nil
	} else {
		delete(s.queries, e.tx.ID())
	}
	s.retireLocked(e)
	s.scheduleLocked()
	s.mu.Unlock()

	s.record(e.tx)
}

// finalize maps the adapter's return value onto a terminal state. A
// transaction already forced into Cancelled keeps that state.
func (s *Scheduler) finalize(tx *transaction.Transaction, err error) {
	var terr error
	switch {
	case err == nil:
		terr = tx.Finish()
	case errors.Is(err, backend.ErrCancelled),
		errors.Is(err, context.Canceled) && tx.CancelRequested():
		terr = tx.MarkCancelled()
	case errors.Is(err, transaction.ErrFinished) && tx.State().Terminal():
	default:
		be := backend.AsError(err)
		s.log.WithFields(logrus.Fields{"tid": tx.ID(), "kind": be.Kind}).Debug(be.Message)
		terr = tx.Fail(be)
	}
	if terr != nil {
		s.log.WithField("tid", tx.ID()).WithError(terr).Error("failed to finish transaction")
	}
}

func (s *Scheduler) retireLocked(e *entry) {
	delete(s.active, e.tx.ID())
	s.archive.Add(e.tx.ID(), e.tx)
}

func (s *Scheduler) record(tx *transaction.Transaction) {
	if s.opts.History == nil {
		return
	}
	entry := history.NewEntry(tx.ID(), tx.Role(), s.caps.Name())
	entry.Timestamp = tx.Created()
	entry.Duration = tx.Runtime()
	entry.Data = tx.Request().Summary()
	if tx.State() == transaction.StateFinished {
		entry.MarkSuccess()
	} else {
		var err error
		if be := tx.Err(); be != nil {
			err = be
		}
		entry.MarkFailed(tx.Exit(), err)
	}
	if err := s.opts.History.Record(entry); err != nil {
		s.log.WithError(err).Warn("failed to record transaction history")
	}
}

func (s *Scheduler) recordAsync(tx *transaction.Transaction) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.record(tx)
	}()
}

func (s *Scheduler) lookup(id string) (*transaction.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.active[id]; ok {
		return e.tx, true
	}
	return s.archive.Get(id)
}

// Get returns a live or recently finished transaction.
func (s *Scheduler) Get(id string) (*transaction.Transaction, error) {
	tx, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx, nil
}

// Subscribe replays the transaction's events and follows new ones.
func (s *Scheduler) Subscribe(id string) (*transaction.Subscription, error) {
	tx, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return tx.Subscribe(), nil
}

// Cancel requests cancellation. A pending transaction is cancelled at once.
// A running one is signalled; if it is in a non-cancellable phase the
// request is kept and the transaction may still finish normally.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	e, ok := s.active[id]
	if !ok {
		_, archived := s.archive.Peek(id)
		s.mu.Unlock()
		if archived {
			return fmt.Errorf("%w: %s", ErrAlreadyFinished, id)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	wasPending := e.tx.State() == transaction.StatePending
	honoured, err := e.tx.RequestCancel()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyFinished, id)
	}
	if wasPending {
		s.queue = removeEntry(s.queue, e)
		s.waiting = removeEntry(s.waiting, e)
		s.retireLocked(e)
		s.scheduleLocked()
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"tid": id, "honoured": honoured}).Info("cancel requested")
	if wasPending {
		s.record(e.tx)
	}
	return nil
}

func removeEntry(list []*entry, e *entry) []*entry {
	for i, x := range list {
		if x == e {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Wait blocks until the transaction reaches a terminal state or ctx is done.
func (s *Scheduler) Wait(ctx context.Context, id string) (Result, error) {
	tx, err := s.Get(id)
	if err != nil {
		return Result{}, err
	}
	select {
	case <-tx.Done():
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	return Result{
		ID:      tx.ID(),
		Role:    tx.Role(),
		State:   tx.State(),
		Exit:    tx.Exit(),
		Err:     tx.Err(),
		Runtime: tx.Runtime(),
		Events:  tx.Events(),
	}, nil
}

// List returns the ids of pending and running transactions in admission order.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.active))
	for _, e := range s.active {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.tx.ID()
	}
	return ids
}

// OldTransactions returns up to n history records, newest first.
func (s *Scheduler) OldTransactions(n int) ([]history.Entry, error) {
	if s.opts.History == nil {
		return nil, nil
	}
	return s.opts.History.List(n)
}

// Close cancels pending transactions, asks running ones to stop, waits for
// every adapter call to return and destroys the backend.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var cancelled []*transaction.Transaction
	for _, e := range append(s.queue, s.waiting...) {
		if _, err := e.tx.RequestCancel(); err == nil {
			cancelled = append(cancelled, e.tx)
		}
		s.retireLocked(e)
	}
	s.queue, s.waiting = nil, nil
	for _, e := range s.active {
		_, _ = e.tx.RequestCancel()
	}
	s.mu.Unlock()

	for _, tx := range cancelled {
		s.record(tx)
	}
	s.wg.Wait()

	s.log.Debug("scheduler closed")
	return s.backend.Destroy()
}
