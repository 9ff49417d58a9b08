package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnknownBackend is returned when no factory is registered under a name.
var ErrUnknownBackend = errors.New("unknown backend")

// Settings are the engine-independent options passed to a backend factory.
type Settings struct {
	Catalog        string
	Repos          string
	FileIndex      string
	Tick           time.Duration
	Offline        bool
	ExclusiveCache bool
	Watch          bool
	Logger         *logrus.Entry
}

// Factory constructs an uninitialized backend.
type Factory func(s Settings) (Backend, error)

// Registry maps backend names to factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. A later registration under the same name wins.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the backend registered as name.
func (r *Registry) Open(name string, s Settings) (Backend, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownBackend, name, r.Names())
	}

	b, err := f(s)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend %s: %w", name, err)
	}
	return b, nil
}
