package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pakd/internal/history"
	"pakd/internal/logging"
	"pakd/pkg/backend"
	"pakd/pkg/backend/sample"
	"pakd/pkg/transaction"
)

const (
	pkgA = "a;1.0;i386;main"
	pkgB = "b;1.0;i386;main"
)

func newScheduler(t *testing.T, b backend.Backend, opts Options) *Scheduler {
	t.Helper()
	opts.Logger = logging.Discard()
	s, err := New(context.Background(), b, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSample(t *testing.T, opts Options) *Scheduler {
	t.Helper()
	b := sample.New(sample.Options{
		Tick:      time.Millisecond,
		ReposPath: filepath.Join(t.TempDir(), "repos.ini"),
	})
	return newScheduler(t, b, opts)
}

func submit(t *testing.T, s *Scheduler, req transaction.Request) string {
	t.Helper()
	id, err := s.Submit(context.Background(), req)
	require.NoError(t, err)
	return id
}

func wait(t *testing.T, s *Scheduler, id string) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := s.Wait(ctx, id)
	require.NoError(t, err, "waiting for %s", id)
	return r
}

func started(t *testing.T, g *gate) string {
	t.Helper()
	select {
	case id := <-g.started:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("no adapter call started")
	}
	return ""
}

func notStarted(t *testing.T, g *gate) {
	t.Helper()
	select {
	case id := <-g.started:
		t.Fatalf("unexpected start of %s", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func install(ids ...string) transaction.Request {
	return transaction.Request{Role: backend.RoleInstallPackages, PackageIDs: ids}
}

func resolve(names ...string) transaction.Request {
	return transaction.Request{Role: backend.RoleResolve, Names: names}
}

func getTx(t *testing.T, s *Scheduler, id string) *transaction.Transaction {
	t.Helper()
	tx, err := s.Get(id)
	require.NoError(t, err)
	return tx
}

func errorEvents(events []transaction.Event) []transaction.ErrorEvent {
	var out []transaction.ErrorEvent
	for _, ev := range events {
		if e, ok := ev.(transaction.ErrorEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func TestTransactionIDFormat(t *testing.T) {
	s := newSample(t, Options{})
	pattern := regexp.MustCompile(`^/\d+_[0-9a-f]{8}$`)

	first := submit(t, s, resolve("glib2"))
	second := submit(t, s, resolve("glib2"))
	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second)

	wait(t, s, first)
	wait(t, s, second)
}

func TestResolveWithSampleBackend(t *testing.T) {
	s := newSample(t, Options{})
	id := submit(t, s, resolve("vips-doc"))

	r := wait(t, s, id)
	assert.Equal(t, transaction.StateFinished, r.State)
	assert.Equal(t, backend.ExitSuccess, r.Exit)

	pkgs := r.Packages()
	require.Len(t, pkgs, 1)
	assert.Equal(t, backend.InfoAvailable, pkgs[0].Info)
	assert.Equal(t, "vips-doc", pkgs[0].ID.Name)
	assert.Equal(t, transaction.KindFinished, r.Events[len(r.Events)-1].Kind())
}

func TestInstallUnsignedReportsSignatureFirst(t *testing.T) {
	s := newSample(t, Options{})
	id := submit(t, s, install("vips-doc;7.12.4-2.fc8;noarch;linva"))

	r := wait(t, s, id)
	assert.Equal(t, transaction.StateError, r.State)
	assert.Equal(t, backend.ExitFailed, r.Exit)
	require.NotNil(t, r.Err)
	assert.Equal(t, backend.ErrorGPGFailure, r.Err.Kind)

	sig, errIdx := -1, -1
	for i, ev := range r.Events {
		switch ev.Kind() {
		case transaction.KindSignatureRequired:
			sig = i
		case transaction.KindError:
			errIdx = i
		}
	}
	require.NotEqual(t, -1, sig, "no signature-required event")
	assert.Less(t, sig, errIdx)
}

func TestSearchGroupWithNoMembers(t *testing.T) {
	s := newSample(t, Options{})
	id := submit(t, s, transaction.Request{Role: backend.RoleSearchGroup, Group: "system"})

	r := wait(t, s, id)
	assert.Equal(t, transaction.StateFinished, r.State)
	assert.Empty(t, r.Packages())
	assert.Empty(t, errorEvents(r.Events))
}

func TestSubmitValidation(t *testing.T) {
	s := newSample(t, Options{})

	tests := []struct {
		name string
		req  transaction.Request
		want error
	}{
		{"unknown role", transaction.Request{Role: "frobnicate"}, ErrInvalidRole},
		{"malformed id", install("vips-doc;1.0"), ErrInvalidParams},
		{"contradictory filter", transaction.Request{
			Role:    backend.RoleResolve,
			Names:   []string{"glib2"},
			Filters: backend.FilterInstalled | backend.FilterNotInstalled,
		}, ErrInvalidParams},
		{"no names", resolve(), ErrInvalidParams},
		{"blank name", resolve(" "), ErrInvalidParams},
		{"bad group", transaction.Request{Role: backend.RoleSearchGroup, Group: "nonsense"}, ErrInvalidParams},
		{"empty search", transaction.Request{Role: backend.RoleSearchName}, ErrInvalidParams},
		{"download without directory", transaction.Request{
			Role:       backend.RoleDownloadPackages,
			PackageIDs: []string{pkgA},
		}, ErrInvalidParams},
		{"two signature ids", transaction.Request{
			Role:       backend.RoleInstallSignature,
			PackageIDs: []string{pkgA, pkgB},
			KeyID:      "BB7576AC",
		}, ErrInvalidParams},
		{"unknown provides", transaction.Request{
			Role:     backend.RoleWhatProvides,
			Search:   "gstreamer0.10(decoder-audio/ac3)",
			Provides: "sound",
		}, ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.Submit(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, id)
		})
	}
	assert.Empty(t, s.List())
}

func TestSubmitRejectsUnsupported(t *testing.T) {
	s := newScheduler(t, newGate(), Options{})

	_, err := s.Submit(context.Background(), transaction.Request{Role: backend.RoleSearchName, Search: "vips"})
	assert.True(t, errors.Is(err, ErrInvalidRole))

	_, err = s.Submit(context.Background(), transaction.Request{
		Role:    backend.RoleResolve,
		Names:   []string{"vips"},
		Filters: backend.FilterGUI,
	})
	assert.True(t, errors.Is(err, ErrInvalidParams))
	assert.Empty(t, s.List())
}

func TestSubmitHonoursContext(t *testing.T) {
	s := newScheduler(t, newGate(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, resolve("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMutationsRunOneAtATime(t *testing.T) {
	g := newGate()
	s := newScheduler(t, g, Options{})

	first := submit(t, s, install(pkgA))
	second := submit(t, s, install(pkgB))
	assert.Equal(t, []string{first, second}, s.List())

	assert.Equal(t, first, started(t, g))
	notStarted(t, g)

	tx, err := s.Get(second)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePending, tx.State())

	g.Release(first)
	assert.Equal(t, second, started(t, g))
	assert.Equal(t, transaction.StateFinished, wait(t, s, first).State)

	g.Release(second)
	assert.Equal(t, transaction.StateFinished, wait(t, s, second).State)

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Equal(t, 1, g.maxMutating)
}

func TestQueriesBypassMutationQueue(t *testing.T) {
	g := newGate()
	s := newScheduler(t, g, Options{})

	running := submit(t, s, install(pkgA))
	assert.Equal(t, running, started(t, g))
	queued := submit(t, s, install(pkgB))

	q1 := submit(t, s, resolve("a"))
	q2 := submit(t, s, resolve("b"))
	got := []string{started(t, g), started(t, g)}
	assert.ElementsMatch(t, []string{q1, q2}, got)

	g.Release(q1)
	g.Release(q2)
	assert.Equal(t, transaction.StateFinished, wait(t, s, q1).State)
	assert.Equal(t, transaction.StateFinished, wait(t, s, q2).State)

	tx, err := s.Get(queued)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePending, tx.State())

	g.Release(running)
	assert.Equal(t, queued, started(t, g))
	g.Release(queued)
	wait(t, s, queued)
}

func TestExclusiveCache(t *testing.T) {
	g := newGate()
	g.exclusive = true
	s := newScheduler(t, g, Options{})
	require.True(t, s.Capabilities().ExclusiveCache())

	query := submit(t, s, resolve("a"))
	assert.Equal(t, query, started(t, g))

	// The mutation waits for the running query to drain.
	mutation := submit(t, s, install(pkgA))
	notStarted(t, g)

	g.Release(query)
	assert.Equal(t, mutation, started(t, g))

	// A query submitted now waits for the mutation.
	late := submit(t, s, resolve("b"))
	notStarted(t, g)
	tx, err := s.Get(late)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePending, tx.State())

	g.Release(mutation)
	assert.Equal(t, late, started(t, g))
	g.Release(late)

	for _, id := range []string{query, mutation, late} {
		assert.Equal(t, transaction.StateFinished, wait(t, s, id).State)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.False(t, g.overlap)
}

func TestCancelRunningTransaction(t *testing.T) {
	g := newGate()
	s := newScheduler(t, g, Options{CancelGrace: time.Second})

	id := submit(t, s, install(pkgA))
	assert.Equal(t, id, started(t, g))
	require.NoError(t, s.Cancel(id))

	r := wait(t, s, id)
	assert.Equal(t, transaction.StateCancelled, r.State)
	assert.Equal(t, backend.ExitCancelled, r.Exit)

	errs := errorEvents(r.Events)
	require.Len(t, errs, 1)
	assert.Equal(t, backend.ErrorTransactionCancelled, errs[0].ErrorKind)
	assert.Equal(t, "The task was stopped successfully", errs[0].Message)
}

func TestCancelGraceReleasesWaitersButNotTheSlot(t *testing.T) {
	g := newGate()
	g.stubborn = true
	s := newScheduler(t, g, Options{CancelGrace: 20 * time.Millisecond})

	id := submit(t, s, install(pkgA))
	assert.Equal(t, id, started(t, g))
	next := submit(t, s, install(pkgB))

	require.NoError(t, s.Cancel(id))
	assert.Equal(t, transaction.StateCancelled, wait(t, s, id).State)

	// The adapter call is still running, so the next mutation keeps waiting.
	notStarted(t, g)

	g.Release(id)
	assert.Equal(t, next, started(t, g))
	g.Release(next)
	assert.Equal(t, transaction.StateFinished, wait(t, s, next).State)

	tx, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, transaction.StateCancelled, tx.State())
}

func TestCancelDuringNonCancellablePhase(t *testing.T) {
	g := newGate()
	g.locked = true
	s := newScheduler(t, g, Options{CancelGrace: 10 * time.Millisecond})

	id := submit(t, s, install(pkgA))
	assert.Equal(t, id, started(t, g))
	require.NoError(t, s.Cancel(id))

	tx, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, tx.CancelRequested())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, transaction.StateRunning, tx.State())

	g.Release(id)
	r := wait(t, s, id)
	assert.Equal(t, transaction.StateFinished, r.State)
	assert.Empty(t, errorEvents(r.Events))
}

func TestCancelPendingTransaction(t *testing.T) {
	g := newGate()
	s := newScheduler(t, g, Options{})

	running := submit(t, s, install(pkgA))
	assert.Equal(t, running, started(t, g))
	queued := submit(t, s, install(pkgB))

	require.NoError(t, s.Cancel(queued))
	r := wait(t, s, queued)
	assert.Equal(t, transaction.StateCancelled, r.State)
	require.Len(t, r.Events, 2)
	assert.Equal(t, transaction.KindError, r.Events[0].Kind())
	assert.Equal(t, transaction.KindFinished, r.Events[1].Kind())
	assert.Equal(t, []string{running}, s.List())

	g.Release(running)
	wait(t, s, running)
	notStarted(t, g)
}

func TestCancelErrors(t *testing.T) {
	s := newSample(t, Options{})

	err := s.Cancel("/99_deadbeef")
	assert.True(t, errors.Is(err, ErrNotFound))

	id := submit(t, s, resolve("glib2"))
	wait(t, s, id)
	require.Eventually(t, func() bool { return len(s.List()) == 0 }, 5*time.Second, 5*time.Millisecond)

	err = s.Cancel(id)
	assert.True(t, errors.Is(err, ErrAlreadyFinished))

	_, err = s.Get("/99_deadbeef")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAdapterPanicBecomesInternalError(t *testing.T) {
	g := newGate()
	g.panics = true
	s := newScheduler(t, g, Options{})

	r := wait(t, s, submit(t, s, resolve("a")))
	assert.Equal(t, transaction.StateError, r.State)
	require.NotNil(t, r.Err)
	assert.Equal(t, backend.ErrorInternal, r.Err.Kind)

	// The scheduler keeps working afterwards.
	g.panics = false
	next := submit(t, s, resolve("b"))
	assert.Equal(t, next, started(t, g))
	g.Release(next)
	assert.Equal(t, transaction.StateFinished, wait(t, s, next).State)
}

func TestSubscribeArchivedTransaction(t *testing.T) {
	s := newSample(t, Options{})
	id := submit(t, s, resolve("glib2"))
	wait(t, s, id)
	require.Eventually(t, func() bool { return len(s.List()) == 0 }, 5*time.Second, 5*time.Millisecond)

	sub, err := s.Subscribe(id)
	require.NoError(t, err)

	var got []transaction.Event
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				done = true
				break
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("subscription did not close")
		}
	}
	require.NotEmpty(t, got)
	assert.Equal(t, Result{Events: got}.Packages(), Result{Events: getTx(t, s, id).Events()}.Packages())
	assert.Equal(t, transaction.KindFinished, got[len(got)-1].Kind())
}

func TestOldTransactions(t *testing.T) {
	store, err := history.OpenAt(filepath.Join(t.TempDir(), "history.db"), 10)
	require.NoError(t, err)
	defer store.Close()

	s := newSample(t, Options{History: store})

	requests := []transaction.Request{
		resolve("glib2"),
		install("vips-doc;7.12.4-2.fc8;noarch;linva"),
		{Role: backend.RoleSearchGroup, Group: "system"},
	}
	for i, req := range requests {
		wait(t, s, submit(t, s, req))
		require.Eventually(t, func() bool {
			n, err := store.Count()
			return err == nil && n == i+1
		}, 5*time.Second, 5*time.Millisecond)
	}
	require.NoError(t, s.Close())

	entries, err := s.OldTransactions(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, backend.RoleSearchGroup, entries[0].Role)
	assert.True(t, entries[0].Succeeded)
	assert.Equal(t, "system", entries[0].Data)

	assert.Equal(t, backend.RoleInstallPackages, entries[1].Role)
	assert.False(t, entries[1].Succeeded)
	assert.Equal(t, backend.ExitFailed, entries[1].Exit)
	assert.Contains(t, entries[1].Error, "GPG")
	assert.Equal(t, "sample", entries[1].Backend)
}

func TestOldTransactionsWithoutHistory(t *testing.T) {
	s := newScheduler(t, newGate(), Options{})
	entries, err := s.OldTransactions(5)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseCancelsOutstandingWork(t *testing.T) {
	g := newGate()
	s := newScheduler(t, g, Options{CancelGrace: time.Second})

	running := submit(t, s, install(pkgA))
	assert.Equal(t, running, started(t, g))
	queued := submit(t, s, install(pkgB))

	queuedTx, err := s.Get(queued)
	require.NoError(t, err)
	runningTx, err := s.Get(running)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Equal(t, transaction.StateCancelled, queuedTx.State())
	assert.Equal(t, transaction.StateCancelled, runningTx.State())

	g.mu.Lock()
	assert.True(t, g.destroyed)
	g.mu.Unlock()

	_, err = s.Submit(context.Background(), install(pkgA))
	assert.True(t, errors.Is(err, ErrClosed))
	assert.NoError(t, s.Close())
}
