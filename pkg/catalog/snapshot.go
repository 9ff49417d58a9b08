package catalog

import (
	"fmt"
	"sort"

	"pakd/pkg/backend"
)

// Snapshot is an immutable, indexed view of a catalog. Readers hold on to a
// snapshot for the duration of a transaction and never see partial writes.
type Snapshot struct {
	cat       *Catalog
	byName    map[string][]*Package
	providers map[string][]*Package
	updates   map[backend.PackageID]*Update
}

func newSnapshot(cat *Catalog) (*Snapshot, error) {
	s := &Snapshot{
		cat:       cat,
		byName:    make(map[string][]*Package),
		providers: make(map[string][]*Package),
		updates:   make(map[backend.PackageID]*Update),
	}
	for i := range cat.Packages {
		p := &cat.Packages[i]
		if p.Name == "" || p.Version == "" {
			return nil, fmt.Errorf("package %d: name and version are required", i)
		}
		s.byName[p.Name] = append(s.byName[p.Name], p)
		for _, prov := range p.Provides {
			s.providers[prov] = append(s.providers[prov], p)
		}
	}
	for i := range cat.Updates {
		u := &cat.Updates[i]
		id, err := backend.ParsePackageID(u.ID)
		if err != nil {
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		if _, ok := s.Lookup(id); !ok {
			return nil, fmt.Errorf("update %s: no such package", u.ID)
		}
		s.updates[id] = u
	}
	return s, nil
}

// Packages returns every concrete package.
func (s *Snapshot) Packages() []*Package {
	out := make([]*Package, len(s.cat.Packages))
	for i := range s.cat.Packages {
		out[i] = &s.cat.Packages[i]
	}
	return out
}

// Find returns the concrete packages named name.
func (s *Snapshot) Find(name string) []*Package {
	return s.byName[name]
}

// Installed returns the installed version of name for arch, if any.
func (s *Snapshot) Installed(name, arch string) (*Package, bool) {
	for _, p := range s.byName[name] {
		if p.Installed && (arch == "" || p.Arch == arch) {
			return p, true
		}
	}
	return nil, false
}

// Lookup returns the package identified by id.
func (s *Snapshot) Lookup(id backend.PackageID) (*Package, bool) {
	for _, p := range s.byName[id.Name] {
		if p.Matches(id) {
			return p, true
		}
	}
	return nil, false
}

// Providers returns the concrete packages providing name.
func (s *Snapshot) Providers(name string) []*Package {
	return s.providers[name]
}

// IsVirtual reports whether name exists only as something other packages
// provide.
func (s *Snapshot) IsVirtual(name string) bool {
	return len(s.byName[name]) == 0 && len(s.providers[name]) > 0
}

// Names returns every concrete and virtual package name, sorted.
func (s *Snapshot) Names() []string {
	seen := make(map[string]struct{}, len(s.byName)+len(s.providers))
	for n := range s.byName {
		seen[n] = struct{}{}
	}
	for n := range s.providers {
		seen[n] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Candidates returns the concrete packages for name, substituting the
// providers when name is virtual.
func (s *Snapshot) Candidates(name string) []*Package {
	if s.IsVirtual(name) {
		return s.providers[name]
	}
	return s.byName[name]
}

// Updates returns the pending updates in catalog order.
func (s *Snapshot) Updates() []Update {
	return append([]Update(nil), s.cat.Updates...)
}

// Update returns the pending update for id.
func (s *Snapshot) Update(id backend.PackageID) (Update, bool) {
	u, ok := s.updates[id]
	if !ok {
		return Update{}, false
	}
	return *u, true
}

// Catalog returns a deep copy of the underlying catalog.
func (s *Snapshot) Catalog() *Catalog {
	return s.cat.clone()
}

// Depends returns the concrete packages p depends on. Dependencies on a
// virtual name resolve to an installed provider when there is one, else to
// every provider. Unknown names are returned in missing.
func (s *Snapshot) Depends(p *Package) (deps []*Package, missing []string) {
	for _, name := range p.Depends {
		cands := s.Candidates(name)
		if len(cands) == 0 {
			missing = append(missing, name)
			continue
		}
		var chosen *Package
		for _, c := range cands {
			if c.Installed {
				chosen = c
				break
			}
		}
		if chosen != nil {
			deps = append(deps, chosen)
			continue
		}
		deps = append(deps, newest(cands))
	}
	return deps, missing
}

// Requires returns the packages that depend on p by name or through one of
// its provides.
func (s *Snapshot) Requires(p *Package) []*Package {
	names := map[string]bool{p.Name: true}
	for _, prov := range p.Provides {
		names[prov] = true
	}
	var out []*Package
	for i := range s.cat.Packages {
		q := &s.cat.Packages[i]
		if q == p {
			continue
		}
		for _, d := range q.Depends {
			if names[d] {
				out = append(out, q)
				break
			}
		}
	}
	return out
}

func newest(pkgs []*Package) *Package {
	best := pkgs[0]
	for _, p := range pkgs[1:] {
		if backend.CompareVersions(p.Version, best.Version) > 0 {
			best = p
		}
	}
	return best
}
