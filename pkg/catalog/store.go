package catalog

import (
	"sync"
)

// Store holds the current snapshot. Writers build a new snapshot from a copy
// and swap it in, so readers never block on a mutation in progress.
type Store struct {
	path string

	mu      sync.RWMutex
	current *Snapshot
	version uint64
	merge   func(next *Catalog, current *Snapshot)

	// hookMu orders change hooks so they never observe swaps out of order.
	hookMu   sync.Mutex
	onChange []func(*Snapshot)
}

// Open loads the catalog at path ("" for the built-in catalog).
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// New returns a store over an in-memory catalog.
func New(cat *Catalog) (*Store, error) {
	snap, err := newSnapshot(cat.clone())
	if err != nil {
		return nil, err
	}
	return &Store{current: snap, version: 1}, nil
}

// Path returns the catalog file, or "" for the built-in one.
func (s *Store) Path() string {
	return s.path
}

// Current returns the latest snapshot.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version increases every time the snapshot is replaced.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OnChange registers fn to run after snapshot swaps. Hooks run in swap
// order and only for the latest snapshot.
func (s *Store) OnChange(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// SetMerge installs fn to adjust every reloaded catalog against the
// snapshot it replaces, e.g. to carry over state committed in this process.
// It runs under the store lock, so no swap can slip in between.
func (s *Store) SetMerge(fn func(next *Catalog, current *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge = fn
}

// Reload re-reads the catalog source and replaces the snapshot, applying
// the merge function when one is set.
func (s *Store) Reload() error {
	cat, err := LoadFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.merge != nil && s.current != nil {
		s.merge(cat, s.current)
	}
	snap, err := newSnapshot(cat)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.swapLocked(snap)
	return nil
}

// Replace swaps in a snapshot built from cat.
func (s *Store) Replace(cat *Catalog) error {
	snap, err := newSnapshot(cat.clone())
	if err != nil {
		return err
	}
	s.swap(snap)
	return nil
}

// Modify applies fn to a copy of the current catalog and swaps the result
// in. The snapshot is left untouched when fn fails.
func (s *Store) Modify(fn func(*Catalog) error) error {
	s.mu.Lock()
	cat := s.current.cat.clone()
	if err := fn(cat); err != nil {
		s.mu.Unlock()
		return err
	}
	snap, err := newSnapshot(cat)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.swapLocked(snap)
	return nil
}

func (s *Store) swap(snap *Snapshot) {
	s.mu.Lock()
	s.swapLocked(snap)
}

// swapLocked installs snap, releases s.mu and runs the change hooks. Hooks
// for a snapshot that was superseded before they got to run are skipped;
// the newer swap runs them instead.
func (s *Store) swapLocked(snap *Snapshot) {
	s.current = snap
	s.version++
	version := s.version
	hooks := append([]func(*Snapshot){}, s.onChange...)
	s.mu.Unlock()

	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	if s.Version() != version {
		return
	}
	for _, fn := range hooks {
		fn(snap)
	}
}
