// Package sample is a complete backend over a YAML package catalog. It
// simulates the phased progress of a real package manager so clients can
// exercise every role without touching the system.
package sample

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pakd/pkg/backend"
	"pakd/pkg/catalog"
	"pakd/pkg/repos"
)

// Name is the identifier the backend registers under.
const Name = "sample"

// DefaultTick is the length of one simulated progress step.
const DefaultTick = 100 * time.Millisecond

// Options configures the sample backend.
type Options struct {
	// CatalogPath is the catalog file. Empty selects the built-in catalog.
	CatalogPath string
	// ReposPath is the INI repository file. Empty keeps the default
	// repositories in memory.
	ReposPath string
	// FileIndexPath is the sqlite file index. Empty keeps it in memory.
	FileIndexPath string

	Tick           time.Duration
	Offline        bool
	ExclusiveCache bool
	// Watch reloads the catalog when its file changes.
	Watch bool

	Logger *logrus.Entry
}

// Backend serves every role from a catalog snapshot.
type Backend struct {
	opts Options
	log  *logrus.Entry

	store *catalog.Store
	index *catalog.FileIndex
	repos *repos.Store

	stop   context.CancelFunc
	locale string

	mu    sync.Mutex
	keys  map[string]bool
	eulas map[string]bool
}

// New returns an uninitialized backend.
func New(opts Options) *Backend {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	return &Backend{
		opts:  opts,
		log:   log.WithField("backend", Name),
		keys:  make(map[string]bool),
		eulas: make(map[string]bool),
	}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Description() string {
	return "Catalog-driven sample backend with simulated progress"
}

// Initialize loads the catalog, the repositories and the file index.
func (b *Backend) Initialize(ctx context.Context, locale string) error {
	b.locale = locale

	store, err := catalog.Open(b.opts.CatalogPath)
	if err != nil {
		return backend.Errorf(backend.ErrorFailedInitialization, "failed to load catalog: %v", err)
	}

	var rs *repos.Store
	if b.opts.ReposPath != "" {
		rs, err = repos.Load(b.opts.ReposPath)
	} else {
		rs, err = repos.Parse(nil)
	}
	if err != nil {
		return backend.Errorf(backend.ErrorFailedInitialization, "failed to load repositories: %v", err)
	}

	index, err := catalog.OpenFileIndex(b.opts.FileIndexPath)
	if err != nil {
		return backend.Errorf(backend.ErrorFailedInitialization, "failed to open file index: %v", err)
	}
	if err := index.Rebuild(store.Current()); err != nil {
		index.Close()
		return backend.Errorf(backend.ErrorFailedInitialization, "failed to build file index: %v", err)
	}
	store.SetMerge(mergeInstalled)
	store.OnChange(func(snap *catalog.Snapshot) {
		if err := index.Rebuild(snap); err != nil {
			b.log.WithError(err).Warn("file index rebuild failed")
		}
	})

	b.store, b.repos, b.index = store, rs, index

	if b.opts.Watch && b.opts.CatalogPath != "" {
		watchCtx, stop := context.WithCancel(context.Background())
		if err := store.Watch(watchCtx, b.log.WithField("component", "catalog")); err != nil {
			stop()
			b.log.WithError(err).Warn("catalog watch disabled")
		} else {
			b.stop = stop
		}
	}

	b.log.WithFields(logrus.Fields{
		"packages": len(store.Current().Packages()),
		"locale":   locale,
	}).Debug("backend initialized")
	return nil
}

// Destroy stops the watcher and closes the file index.
func (b *Backend) Destroy() error {
	if b.stop != nil {
		b.stop()
	}
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

func (b *Backend) Filters() backend.Filter {
	return backend.FilterInstalled | backend.FilterNotInstalled |
		backend.FilterDevel | backend.FilterNotDevel |
		backend.FilterGUI | backend.FilterNotGUI |
		backend.FilterFree | backend.FilterNotFree |
		backend.FilterCollections | backend.FilterNotCollections |
		backend.FilterNewest | backend.FilterNotNewest
}

func (b *Backend) Groups() []backend.Group {
	return backend.AllGroups
}

func (b *Backend) MimeTypes() []string {
	return []string{"application/x-deb"}
}

func (b *Backend) ExclusiveCache() bool {
	return b.opts.ExclusiveCache
}

// Catalog exposes the catalog store.
func (b *Backend) Catalog() *catalog.Store {
	return b.store
}

// visible reports whether p can be seen at all: installed packages always
// are, others only while their repository is enabled.
func (b *Backend) visible(p *catalog.Package) bool {
	if p.Installed {
		return true
	}
	if _, err := b.repos.Get(p.Repo); err != nil {
		return true
	}
	return b.repos.Enabled(p.Repo)
}

// match applies filters to p. The newest predicates compare p against the
// other visible versions of the same name and architecture.
func (b *Backend) match(snap *catalog.Snapshot, filters backend.Filter, p *catalog.Package) bool {
	if !b.visible(p) || !filters.Match(p.Attributes()) {
		return false
	}
	if filters&(backend.FilterNewest|backend.FilterNotNewest) == 0 {
		return true
	}
	newest := true
	for _, q := range snap.Find(p.Name) {
		if q.Arch == p.Arch && b.visible(q) && backend.CompareVersions(q.Version, p.Version) > 0 {
			newest = false
			break
		}
	}
	if filters&backend.FilterNewest != 0 {
		return newest
	}
	return !newest
}

func (b *Backend) result(job backend.Job, p *catalog.Package) backend.Result {
	info := backend.InfoAvailable
	if p.Installed {
		info = backend.InfoInstalled
	}
	return backend.Result{Info: info, ID: p.ID(), Summary: p.Text(job.Locale()).Summary}
}

// emit sorts and de-duplicates the accumulated results, then sends them.
func emit(job backend.Job, results []backend.Result) error {
	for _, r := range backend.Normalize(results) {
		if err := job.Package(r.Info, r.ID, r.Summary); err != nil {
			return err
		}
	}
	return nil
}

// lookup resolves ids against snap.
func lookup(snap *catalog.Snapshot, ids []backend.PackageID) ([]*catalog.Package, error) {
	pkgs := make([]*catalog.Package, 0, len(ids))
	for _, id := range ids {
		p, ok := snap.Lookup(id)
		if !ok {
			return nil, backend.Errorf(backend.ErrorPackageNotFound, "package %s not found", id)
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

// sleep waits one tick. It returns ErrCancelled as soon as the job is
// cancelled; inside a non-cancellable phase it always waits the full tick.
func (b *Backend) sleep(job backend.Job) error {
	t := time.NewTimer(b.opts.Tick)
	defer t.Stop()

	select {
	case <-t.C:
	case <-job.Context().Done():
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		<-t.C
	}
	if job.Cancelled() {
		return backend.ErrCancelled
	}
	return nil
}

// ramp moves the percentage from `from` to `to` in steps, sleeping a tick
// between steps. at runs before each sleep.
func (b *Backend) ramp(job backend.Job, from, to, step int, at func(pct int) error) error {
	for pct := from; pct <= to; pct += step {
		job.SetPercentage(pct)
		if at != nil {
			if err := at(pct); err != nil {
				return err
			}
		}
		if pct < to {
			if err := b.sleep(job); err != nil {
				return err
			}
		}
	}
	return nil
}

// provideKind classifies a provides string.
func provideKind(s string) backend.Provides {
	switch {
	case strings.HasPrefix(s, "gstreamer"):
		return backend.ProvidesCodec
	case strings.HasPrefix(s, "font("):
		return backend.ProvidesFont
	case strings.HasPrefix(s, "modalias("):
		return backend.ProvidesModalias
	case strings.Contains(s, "/"):
		return backend.ProvidesMimetype
	}
	return backend.ProvidesAny
}

func (b *Backend) trustedKey(keyID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keys[keyID]
}

func (b *Backend) acceptedEula(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eulas[id]
}

func (b *Backend) offline(action string) error {
	if b.opts.Offline {
		return backend.Errorf(backend.ErrorNetworkUnavailable, "%s", action)
	}
	return nil
}

// Factory builds a sample backend from generic settings.
func Factory(s backend.Settings) (backend.Backend, error) {
	return New(Options{
		CatalogPath:    s.Catalog,
		ReposPath:      s.Repos,
		FileIndexPath:  s.FileIndex,
		Tick:           s.Tick,
		Offline:        s.Offline,
		ExclusiveCache: s.ExclusiveCache,
		Watch:          s.Watch,
		Logger:         s.Logger,
	}), nil
}
