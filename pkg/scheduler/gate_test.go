package scheduler

import (
	"context"
	"sync"

	"pakd/pkg/backend"
)

// gate is a backend whose calls block until the test releases them. It
// supports Resolve (a query) and InstallPackages (a mutation).
type gate struct {
	exclusive bool

	// stubborn calls ignore the job context and only return on release.
	stubborn bool
	// locked calls leave the cancellable phase before they report started.
	locked   bool
	// panics makes Resolve panic.
	panics   bool

	started chan string

	mu          sync.Mutex
	release     map[string]chan struct{}
	mutating    int
	maxMutating int
	queries     int
	overlap     bool
	destroyed   bool
}

func newGate() *gate {
	return &gate{
		started: make(chan string, 32),
		release: make(map[string]chan struct{}),
	}
}

func (g *gate) Name() string                                        { return "gate" }
func (g *gate) Description() string                                 { return "blocking test backend" }
func (g *gate) Initialize(ctx context.Context, locale string) error { return nil }
func (g *gate) Filters() backend.Filter                             { return backend.FilterInstalled | backend.FilterNotInstalled }
func (g *gate) Groups() []backend.Group                             { return nil }
func (g *gate) MimeTypes() []string                                 { return nil }
func (g *gate) ExclusiveCache() bool                                { return g.exclusive }

func (g *gate) Destroy() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyed = true
	return nil
}

func (g *gate) channel(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.release[id]
	if !ok {
		ch = make(chan struct{})
		g.release[id] = ch
	}
	return ch
}

// Release lets the call for transaction id return.
func (g *gate) Release(id string) {
	close(g.channel(id))
}

func (g *gate) block(job backend.Job) error {
	if g.locked {
		job.SetAllowCancel(false)
	}
	g.started <- job.ID()

	ch := g.channel(job.ID())
	if g.stubborn {
		<-ch
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-job.Context().Done():
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		<-ch
		return nil
	}
}

func (g *gate) Resolve(job backend.Job, filters backend.Filter, names []string) error {
	if g.panics {
		panic("resolver exploded")
	}
	g.mu.Lock()
	g.queries++
	if g.mutating > 0 {
		g.overlap = true
	}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.queries--
		g.mu.Unlock()
	}()
	return g.block(job)
}

func (g *gate) InstallPackages(job backend.Job, onlyTrusted bool, ids []backend.PackageID) error {
	g.mu.Lock()
	g.mutating++
	if g.mutating > g.maxMutating {
		g.maxMutating = g.mutating
	}
	if g.queries > 0 && g.exclusive {
		g.overlap = true
	}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.mutating--
		g.mu.Unlock()
	}()
	return g.block(job)
}
