package sample

import (
	"pakd/pkg/backend"
	"pakd/pkg/catalog"
)

// pendingUpdate is a catalog update whose package is visible, not installed
// and newer than an installed version.
type pendingUpdate struct {
	update   catalog.Update
	pkg      *catalog.Package
	replaces []*catalog.Package
}

func (u pendingUpdate) info() backend.Info {
	if u.update.Info == "" {
		return backend.InfoNormal
	}
	return u.update.Info
}

func (b *Backend) pendingUpdates(snap *catalog.Snapshot) []pendingUpdate {
	var out []pendingUpdate
	for _, u := range snap.Updates() {
		id, err := backend.ParsePackageID(u.ID)
		if err != nil {
			continue
		}
		p, ok := snap.Lookup(id)
		if !ok || p.Installed || !b.visible(p) {
			continue
		}
		old := olderInstalled(snap, p)
		if len(old) == 0 {
			continue
		}
		out = append(out, pendingUpdate{update: u, pkg: p, replaces: old})
	}
	return out
}

func olderInstalled(snap *catalog.Snapshot, p *catalog.Package) []*catalog.Package {
	var old []*catalog.Package
	for _, q := range snap.Find(p.Name) {
		if q.Installed && q.Arch == p.Arch && backend.CompareVersions(q.Version, p.Version) < 0 {
			old = append(old, q)
		}
	}
	sortPackages(old)
	return old
}

func (b *Backend) GetUpdates(job backend.Job, filters backend.Filter) error {
	if err := b.offline("Cannot check when offline"); err != nil {
		return err
	}
	job.SetStatus(backend.StatusQuery)
	job.SetPercentage(backend.PercentageUnknown)
	snap := b.store.Current()

	var results []backend.Result
	for _, u := range b.pendingUpdates(snap) {
		if b.match(snap, filters, u.pkg) {
			results = append(results, backend.Result{
				Info:    u.info(),
				ID:      u.pkg.ID(),
				Summary: u.pkg.Text(job.Locale()).Summary,
			})
		}
	}
	return emit(job, results)
}

func (b *Backend) GetUpdateDetail(job backend.Job, ids []backend.PackageID) error {
	job.SetStatus(backend.StatusQuery)
	snap := b.store.Current()

	pkgs, err := lookup(snap, ids)
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		u, ok := snap.Update(p.RepoID())
		if !ok {
			return backend.Errorf(backend.ErrorPackageNotFound, "no update available for %s", p.ID())
		}

		var updates []backend.PackageID
		for _, q := range olderInstalled(snap, p) {
			updates = append(updates, q.ID())
		}
		obsoletes, err := backend.ParsePackageIDs(u.Obsoletes)
		if err != nil {
			return backend.Errorf(backend.ErrorInternal, "update %s: %v", u.ID, err)
		}
		restart := u.Restart
		if restart == "" {
			restart = backend.RestartNone
		}
		state := u.State
		if state == "" {
			state = backend.UpdateStateUnknown
		}

		err = job.UpdateDetail(backend.UpdateDetail{
			ID:          p.ID(),
			Updates:     updates,
			Obsoletes:   obsoletes,
			VendorURL:   u.VendorURL,
			BugzillaURL: u.BugzillaURL,
			CVEURL:      u.CVEURL,
			Restart:     restart,
			Text:        u.Text,
			Changelog:   u.Changelog,
			State:       state,
			Issued:      u.Issued,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// requireRestarts emits the restart each update in plan asks for.
func requireRestarts(job backend.Job, snap *catalog.Snapshot, plan []*catalog.Package) error {
	for _, p := range plan {
		u, ok := snap.Update(p.RepoID())
		if !ok || u.Restart == "" || u.Restart == backend.RestartNone {
			continue
		}
		if err := job.RequireRestart(u.Restart, p.RepoID()); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) UpdatePackages(job backend.Job, onlyTrusted bool, ids []backend.PackageID) error {
	job.SetStatus(backend.StatusSetup)
	snap := b.store.Current()

	pkgs, err := lookup(snap, ids)
	if err != nil {
		return err
	}
	for _, p := range pkgs {
		if p.Installed {
			return backend.Errorf(backend.ErrorAlreadyInstalled, "package %s is already installed", p.ID())
		}
		if len(olderInstalled(snap, p)) == 0 {
			return backend.Errorf(backend.ErrorPackageNotInstalled, "no older version of %s is installed", p.Name)
		}
	}

	plan, err := installPlan(snap, pkgs)
	if err != nil {
		return err
	}
	if err := b.checkTrust(job, plan); err != nil {
		return err
	}
	if err := requireRestarts(job, snap, plan); err != nil {
		return err
	}
	b.log.WithField("tid", job.ID()).WithField("only_trusted", onlyTrusted).Info("updating packages")
	return b.deploy(job, snap, plan, backend.InfoUpdating)
}

func (b *Backend) UpdateSystem(job backend.Job, onlyTrusted bool) error {
	job.SetStatus(backend.StatusSetup)
	snap := b.store.Current()

	var targets []*catalog.Package
	var blocked []pendingUpdate
	for _, u := range b.pendingUpdates(snap) {
		if u.info() == backend.InfoBlocked {
			blocked = append(blocked, u)
			continue
		}
		targets = append(targets, u.pkg)
	}

	plan, err := installPlan(snap, targets)
	if err != nil {
		return err
	}
	if err := b.checkTrust(job, plan); err != nil {
		return err
	}
	if err := requireRestarts(job, snap, plan); err != nil {
		return err
	}
	for _, u := range blocked {
		if err := job.Package(backend.InfoBlocked, u.pkg.ID(), u.pkg.Text(job.Locale()).Summary); err != nil {
			return err
		}
	}
	b.log.WithField("tid", job.ID()).WithField("only_trusted", onlyTrusted).Info("updating system")
	return b.deploy(job, snap, plan, backend.InfoUpdating)
}

// RefreshCache re-reads the catalog source. Installed state is carried
// over from the current snapshot, so only repository metadata changes.
func (b *Backend) RefreshCache(job backend.Job, force bool) error {
	if err := b.offline("Cannot refresh cache whilst offline"); err != nil {
		return err
	}
	job.SetStatus(backend.StatusRefreshCache)

	return b.ramp(job, 0, 100, 10, func(pct int) error {
		if pct != 80 {
			return nil
		}
		job.SetAllowCancel(false)
		b.log.WithField("force", force).Debug("reloading catalog")

		if err := b.store.Reload(); err != nil {
			return backend.Errorf(backend.ErrorInternal, "failed to reload catalog: %v", err)
		}
		return nil
	})
}

// mergeInstalled copies the installed flags of old into cat and keeps
// installed packages that cat no longer lists. The store applies it to every
// reload, whether from RefreshCache or the file watcher.
func mergeInstalled(cat *catalog.Catalog, old *catalog.Snapshot) {
	known := make(map[backend.PackageID]bool, len(cat.Packages))
	for i := range cat.Packages {
		p := &cat.Packages[i]
		known[p.RepoID()] = true
		if prev, ok := old.Lookup(p.RepoID()); ok {
			p.Installed = prev.Installed
		}
	}
	for _, p := range old.Packages() {
		if p.Installed && !known[p.RepoID()] {
			cat.Packages = append(cat.Packages, *p)
		}
	}
}
