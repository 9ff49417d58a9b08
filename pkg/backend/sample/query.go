package sample

import (
	"strings"

	"github.com/sirupsen/logrus"

	"pakd/pkg/backend"
	"pakd/pkg/catalog"
)

func (b *Backend) Resolve(job backend.Job, filters backend.Filter, names []string) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()

	var results []backend.Result
	for _, name := range names {
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		for _, p := range snap.Candidates(name) {
			if b.match(snap, filters, p) {
				results = append(results, b.result(job, p))
			}
		}
	}
	return emit(job, results)
}

// terms splits a search string into lower-case words that must all match.
func terms(search string) []string {
	return strings.Fields(strings.ToLower(search))
}

func containsAll(s string, words []string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

// searchNames collects the packages whose name, or a virtual name they
// provide, satisfies pred. Virtual names are replaced by their providers.
func (b *Backend) searchNames(job backend.Job, snap *catalog.Snapshot, filters backend.Filter, pred func(name string, p *catalog.Package) bool) ([]backend.Result, error) {
	var results []backend.Result
	for _, name := range snap.Names() {
		if job.Cancelled() {
			return nil, backend.ErrCancelled
		}
		for _, p := range snap.Candidates(name) {
			if pred(name, p) && b.match(snap, filters, p) {
				results = append(results, b.result(job, p))
			}
		}
	}
	return results, nil
}

func (b *Backend) SearchName(job backend.Job, filters backend.Filter, search string) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()
	words := terms(search)

	results, err := b.searchNames(job, snap, filters, func(name string, _ *catalog.Package) bool {
		return containsAll(name, words)
	})
	if err != nil {
		return err
	}
	return emit(job, results)
}

func (b *Backend) SearchDetails(job backend.Job, filters backend.Filter, search string) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()
	words := terms(search)
	locale := job.Locale()

	results, err := b.searchNames(job, snap, filters, func(name string, p *catalog.Package) bool {
		if containsAll(name, words) {
			return true
		}
		local := p.Text(locale)
		for _, s := range []string{p.Summary, p.Description, local.Summary, local.Description} {
			if containsAll(s, words) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	return emit(job, results)
}

func (b *Backend) SearchGroup(job backend.Job, filters backend.Filter, group backend.Group) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()

	var results []backend.Result
	for _, p := range snap.Packages() {
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		if p.Group() == group && b.match(snap, filters, p) {
			results = append(results, b.result(job, p))
		}
	}
	return emit(job, results)
}

func (b *Backend) SearchFile(job backend.Job, filters backend.Filter, path string) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()

	owners, err := b.index.Search(path)
	if err != nil {
		return backend.Errorf(backend.ErrorInternal, "file search failed: %v", err)
	}

	var results []backend.Result
	for _, o := range owners {
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		id := backend.PackageID{Name: o.Name, Version: o.Version, Arch: o.Arch, Data: o.Repo}
		p, ok := snap.Lookup(id)
		if ok && b.match(snap, filters, p) {
			results = append(results, b.result(job, p))
		}
	}
	return emit(job, results)
}

func (b *Backend) GetDepends(job backend.Job, filters backend.Filter, ids []backend.PackageID, recursive bool) error {
	return b.walk(job, filters, ids, recursive, func(snap *catalog.Snapshot, p *catalog.Package) []*catalog.Package {
		deps, missing := snap.Depends(p)
		for _, m := range missing {
			b.log.WithFields(logrus.Fields{"package": p.Name, "depends": m}).Warn("unresolvable dependency")
		}
		return deps
	})
}

func (b *Backend) GetRequires(job backend.Job, filters backend.Filter, ids []backend.PackageID, recursive bool) error {
	return b.walk(job, filters, ids, recursive, func(snap *catalog.Snapshot, p *catalog.Package) []*catalog.Package {
		return snap.Requires(p)
	})
}

// walk emits the packages reachable from ids through next. Without
// recursive only direct neighbours are followed. The starting packages are
// never part of the result.
func (b *Backend) walk(job backend.Job, filters backend.Filter, ids []backend.PackageID, recursive bool,
	next func(*catalog.Snapshot, *catalog.Package) []*catalog.Package) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()

	start, err := lookup(snap, ids)
	if err != nil {
		return err
	}

	seen := make(map[*catalog.Package]bool, len(start))
	for _, p := range start {
		seen[p] = true
	}

	var results []backend.Result
	queue := start
	for depth := 0; len(queue) > 0; depth++ {
		if depth > 0 && !recursive {
			break
		}
		// Checkpoint before each resolution pass.
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		var following []*catalog.Package
		for _, p := range queue {
			for _, q := range next(snap, p) {
				if seen[q] {
					continue
				}
				seen[q] = true
				following = append(following, q)
				if b.match(snap, filters, q) {
					results = append(results, b.result(job, q))
				}
			}
		}
		queue = following
	}
	return emit(job, results)
}

func (b *Backend) GetDetails(job backend.Job, ids []backend.PackageID) error {
	job.SetStatus(backend.StatusQuery)
	snap := b.store.Current()

	pkgs, err := lookup(snap, ids)
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		text := p.Text(job.Locale())
		err := job.Details(backend.Details{
			ID:          p.ID(),
			License:     p.License,
			Group:       p.Group(),
			Description: text.Description,
			URL:         p.URL,
			Size:        p.Size,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) GetFiles(job backend.Job, ids []backend.PackageID) error {
	job.SetStatus(backend.StatusQuery)
	snap := b.store.Current()

	pkgs, err := lookup(snap, ids)
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		files, err := b.index.Files(p.ID())
		if err != nil {
			return backend.Errorf(backend.ErrorInternal, "failed to list files: %v", err)
		}
		if err := job.Files(p.ID(), files); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) GetPackages(job backend.Job, filters backend.Filter) error {
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()

	var results []backend.Result
	for _, p := range snap.Packages() {
		if job.Cancelled() {
			return backend.ErrCancelled
		}
		if b.match(snap, filters, p) {
			results = append(results, b.result(job, p))
		}
	}
	return emit(job, results)
}

func (b *Backend) WhatProvides(job backend.Job, filters backend.Filter, provides backend.Provides, search string) error {
	job.SetStatus(backend.StatusQuery)
	snap := b.store.Current()

	var results []backend.Result
	collect := func(pct int) error {
		if pct != 100 {
			return nil
		}
		for _, p := range snap.Packages() {
			for _, prov := range p.Provides {
				kind := provideKind(prov)
				if provides != backend.ProvidesAny && kind != provides {
					continue
				}
				if strings.EqualFold(prov, search) && b.match(snap, filters, p) {
					results = append(results, b.result(job, p))
					break
				}
			}
		}
		return nil
	}
	if err := b.ramp(job, 0, 100, 10, collect); err != nil {
		return err
	}
	return emit(job, results)
}
