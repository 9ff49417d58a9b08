package sample

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"pakd/pkg/backend"
	"pakd/pkg/catalog"
)

// installPlan returns pkgs plus every dependency that is not installed yet,
// sorted by id.
func installPlan(snap *catalog.Snapshot, pkgs []*catalog.Package) ([]*catalog.Package, error) {
	seen := make(map[*catalog.Package]bool)
	var plan []*catalog.Package

	queue := append([]*catalog.Package(nil), pkgs...)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] {
			continue
		}
		seen[p] = true
		plan = append(plan, p)

		deps, missing := snap.Depends(p)
		if len(missing) > 0 {
			return nil, backend.Errorf(backend.ErrorDepResolutionFailed,
				"could not resolve %s needed by %s", strings.Join(missing, ", "), p.ID())
		}
		for _, d := range deps {
			if !d.Installed && !seen[d] {
				queue = append(queue, d)
			}
		}
	}
	sortPackages(plan)
	return plan, nil
}

func sortPackages(pkgs []*catalog.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].ID().Compare(pkgs[j].ID()) < 0
	})
}

// checkTrust stops at the first package whose signing key has not been
// imported or whose licence has not been accepted, emitting the prompt the
// client needs to continue.
func (b *Backend) checkTrust(job backend.Job, pkgs []*catalog.Package) error {
	for _, p := range pkgs {
		sig := p.Signature
		if sig == nil || b.trustedKey(sig.KeyID) {
			continue
		}
		err := job.RepoSignatureRequired(backend.RepoSignature{
			PackageID:      p.ID(),
			RepoName:       sig.RepoName,
			KeyURL:         sig.KeyURL,
			KeyUserID:      sig.KeyUserID,
			KeyID:          sig.KeyID,
			KeyFingerprint: sig.Fingerprint,
			KeyTimestamp:   sig.Timestamp,
			Type:           backend.SigTypeGPG,
		})
		if err != nil {
			return err
		}
		return backend.Errorf(backend.ErrorGPGFailure, "GPG signed package could not be verified")
	}

	for _, p := range pkgs {
		eula := p.Eula
		if eula == nil || b.acceptedEula(eula.ID) {
			continue
		}
		err := job.EulaRequired(backend.Eula{
			ID:        eula.ID,
			PackageID: p.ID(),
			Vendor:    eula.Vendor,
			Agreement: eula.Agreement,
		})
		if err != nil {
			return err
		}
		return backend.Errorf(backend.ErrorNoLicenseAgreement, "licence not installed so cannot install")
	}
	return nil
}

// markInstalled flags the given packages as installed, replacing any other
// installed version of the same name and architecture.
func markInstalled(c *catalog.Catalog, ids []backend.PackageID) {
	for _, id := range ids {
		for i := range c.Packages {
			p := &c.Packages[i]
			if p.Name != id.Name || p.Arch != id.Arch {
				continue
			}
			p.Installed = p.RepoID() == id
		}
	}
}

// progressOf spreads n items evenly over the percentage range [from, to].
func progressOf(i, n, from, to int) int {
	if n == 0 {
		return to
	}
	return from + (to-from)*i/n
}

func (b *Backend) InstallPackages(job backend.Job, onlyTrusted bool, ids []backend.PackageID) error {
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
		if !b.visible(p) {
			return backend.Errorf(backend.ErrorRepoNotFound, "repository %s is disabled", p.Repo)
		}
	}

	plan, err := installPlan(snap, pkgs)
	if err != nil {
		return err
	}
	if err := b.checkTrust(job, plan); err != nil {
		return err
	}
	b.log.WithFields(logrus.Fields{
		"tid":          job.ID(),
		"packages":     len(plan),
		"only_trusted": onlyTrusted,
	}).Info("installing packages")

	return b.deploy(job, snap, plan, backend.InfoInstalling)
}

// deploy runs the download, install and cleanup phases for plan and
// records the result in the catalog. Cancellation is possible until the
// first package is unpacked.
func (b *Backend) deploy(job backend.Job, snap *catalog.Snapshot, plan []*catalog.Package, info backend.Info) error {
	var replaced []*catalog.Package
	for _, p := range plan {
		for _, q := range snap.Find(p.Name) {
			if q.Installed && q.Arch == p.Arch && q != p {
				replaced = append(replaced, q)
			}
		}
	}
	sortPackages(replaced)
	installEnd := 100
	if len(replaced) > 0 {
		installEnd = 80
	}

	job.SetStatus(backend.StatusDownload)
	job.SetAllowCancel(true)
	for i, p := range plan {
		job.SetPercentage(progressOf(i, len(plan), 0, 30))
		if err := job.Package(backend.InfoDownloading, p.RepoID(), p.Text(job.Locale()).Summary); err != nil {
			return err
		}
		if err := b.sleep(job); err != nil {
			return err
		}
	}

	job.SetPercentage(30)
	job.SetAllowCancel(false)
	if info == backend.InfoUpdating {
		job.SetStatus(backend.StatusUpdate)
	} else {
		job.SetStatus(backend.StatusInstall)
	}

	ids := make([]backend.PackageID, 0, len(plan))
	for i, p := range plan {
		if err := job.Package(info, p.RepoID(), p.Text(job.Locale()).Summary); err != nil {
			return err
		}
		for sub := 0; sub <= 100; sub += 50 {
			job.SetSubPercentage(sub)
			if sub < 100 {
				if err := b.sleep(job); err != nil {
					return err
				}
			}
		}
		ids = append(ids, p.RepoID())
		job.SetPercentage(progressOf(i+1, len(plan), 30, installEnd))
	}

	if len(replaced) > 0 {
		job.SetStatus(backend.StatusCleanup)
		for i, q := range replaced {
			if err := job.Package(backend.InfoCleanup, q.ID(), q.Text(job.Locale()).Summary); err != nil {
				return err
			}
			job.SetPercentage(progressOf(i+1, len(replaced), installEnd, 100))
		}
	}

	if err := b.store.Modify(func(c *catalog.Catalog) error {
		markInstalled(c, ids)
		return nil
	}); err != nil {
		return backend.Errorf(backend.ErrorInternal, "failed to record installation: %v", err)
	}
	job.SetPercentage(100)
	return nil
}

func (b *Backend) InstallFiles(job backend.Job, onlyTrusted bool, paths []string) error {
	job.SetStatus(backend.StatusInstall)
	snap := b.store.Current()

	var local []catalog.Package
	for _, path := range paths {
		if !strings.HasSuffix(path, ".deb") {
			return backend.Errorf(backend.ErrorMimeTypeNotSupported,
				"%s is not a supported package file (application/x-deb)", filepath.Base(path))
		}
		if _, err := os.Stat(path); err != nil {
			return backend.Errorf(backend.ErrorFileNotFound, "%s: %v", path, err)
		}
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return backend.Errorf(backend.ErrorInternal, "%s: %v", path, err)
		}
		if len(cat.Packages) == 0 {
			return backend.Errorf(backend.ErrorFileNotFound, "%s does not contain a package", path)
		}
		for _, p := range cat.Packages {
			if p.Repo == "" {
				p.Repo = "local"
			}
			if onlyTrusted && p.Signature == nil {
				return backend.Errorf(backend.ErrorGPGFailure, "package file %s is not signed", filepath.Base(path))
			}
			if existing, ok := snap.Lookup(p.RepoID()); ok && existing.Installed {
				return backend.Errorf(backend.ErrorAlreadyInstalled, "package %s is already installed", existing.ID())
			}
			p.Installed = false
			local = append(local, p)
		}
	}

	provided := make(map[string]bool)
	for _, p := range local {
		provided[p.Name] = true
		for _, prov := range p.Provides {
			provided[prov] = true
		}
	}
	pkgs := make([]*catalog.Package, len(local))
	for i := range local {
		p := &local[i]
		pkgs[i] = p
		for _, dep := range p.Depends {
			if provided[dep] {
				continue
			}
			if !installedProvider(snap, dep) {
				return backend.Errorf(backend.ErrorDepResolutionFailed, "%s requires %s which is not installed", p.RepoID(), dep)
			}
		}
	}
	if err := b.checkTrust(job, pkgs); err != nil {
		return err
	}

	job.SetAllowCancel(false)
	ids := make([]backend.PackageID, 0, len(pkgs))
	for i, p := range pkgs {
		if err := job.Package(backend.InfoInstalling, p.RepoID(), p.Summary); err != nil {
			return err
		}
		ids = append(ids, p.RepoID())
		job.SetPercentage(progressOf(i+1, len(pkgs), 0, 100))
	}

	err := b.store.Modify(func(c *catalog.Catalog) error {
		for _, p := range local {
			found := false
			for i := range c.Packages {
				if c.Packages[i].RepoID() == p.RepoID() {
					found = true
					break
				}
			}
			if !found {
				c.Packages = append(c.Packages, p)
			}
		}
		markInstalled(c, ids)
		return nil
	})
	if err != nil {
		return backend.Errorf(backend.ErrorInternal, "failed to record installation: %v", err)
	}
	return nil
}

func installedProvider(snap *catalog.Snapshot, name string) bool {
	for _, p := range snap.Candidates(name) {
		if p.Installed {
			return true
		}
	}
	return false
}

func (b *Backend) InstallSignature(job backend.Job, sigType backend.SigType, keyID string, id backend.PackageID) error {
	job.SetStatus(backend.StatusSetup)
	if sigType != backend.SigTypeGPG {
		return backend.Errorf(backend.ErrorGPGFailure, "signature type %s is not supported", sigType)
	}

	p, ok := b.store.Current().Lookup(id)
	if !ok || p.Signature == nil || !strings.EqualFold(p.Signature.KeyID, keyID) {
		return backend.Errorf(backend.ErrorGPGFailure, "GPG key %s not recognised for package_id %s", keyID, id)
	}

	b.mu.Lock()
	b.keys[p.Signature.KeyID] = true
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{"key": keyID, "package": id.String()}).Info("signing key imported")
	return nil
}

func (b *Backend) AcceptEula(job backend.Job, eulaID string) error {
	job.SetStatus(backend.StatusRequest)

	for _, p := range b.store.Current().Packages() {
		if p.Eula == nil || p.Eula.ID != eulaID {
			continue
		}
		b.mu.Lock()
		b.eulas[eulaID] = true
		b.mu.Unlock()
		b.log.WithField("eula", eulaID).Info("licence agreement accepted")
		return nil
	}
	return backend.Errorf(backend.ErrorNoLicenseAgreement, "licence agreement %s is not known", eulaID)
}

func (b *Backend) RemovePackages(job backend.Job, ids []backend.PackageID, allowDeps, autoremove bool) error {
	if err := b.offline("No network connection available"); err != nil {
		return err
	}
	job.SetStatus(backend.StatusRemove)
	snap := b.store.Current()

	pkgs, err := lookup(snap, ids)
	if err != nil {
		return err
	}
	removing := make(map[*catalog.Package]bool)
	for _, p := range pkgs {
		if !p.Installed {
			return backend.Errorf(backend.ErrorPackageNotInstalled, "package %s is not installed", p.ID())
		}
		removing[p] = true
	}

	// Packages that need something being removed go too, when allowed.
	queue := append([]*catalog.Package(nil), pkgs...)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, q := range snap.Requires(p) {
			if !q.Installed || removing[q] {
				continue
			}
			if !allowDeps {
				return backend.Errorf(backend.ErrorDepResolutionFailed, "%s is needed by %s", p.ID(), q.ID())
			}
			removing[q] = true
			queue = append(queue, q)
		}
	}

	if autoremove {
		for changed := true; changed; {
			changed = false
			for p := range removing {
				deps, _ := snap.Depends(p)
				for _, d := range deps {
					if d.Installed && !removing[d] && !neededByOthers(snap, d, removing) {
						removing[d] = true
						changed = true
					}
				}
			}
		}
	}

	plan := make([]*catalog.Package, 0, len(removing))
	for p := range removing {
		plan = append(plan, p)
	}
	sortPackages(plan)

	// Resolution is done; one last chance to cancel.
	if err := b.sleep(job); err != nil {
		return err
	}
	job.SetAllowCancel(false)

	removed := make(map[backend.PackageID]bool, len(plan))
	for i, p := range plan {
		job.SetPercentage(progressOf(i, len(plan), 0, 100))
		if err := job.Package(backend.InfoRemoving, p.ID(), p.Text(job.Locale()).Summary); err != nil {
			return err
		}
		removed[p.RepoID()] = true
		if err := b.sleep(job); err != nil {
			return err
		}
	}

	err = b.store.Modify(func(c *catalog.Catalog) error {
		for i := range c.Packages {
			if removed[c.Packages[i].RepoID()] {
				c.Packages[i].Installed = false
			}
		}
		return nil
	})
	if err != nil {
		return backend.Errorf(backend.ErrorInternal, "failed to record removal: %v", err)
	}
	job.SetPercentage(100)
	return nil
}

// neededByOthers reports whether an installed package outside removing
// depends on p.
func neededByOthers(snap *catalog.Snapshot, p *catalog.Package, removing map[*catalog.Package]bool) bool {
	for _, q := range snap.Requires(p) {
		if q.Installed && !removing[q] {
			return true
		}
	}
	return false
}

// packageFile is the file name a package downloads to.
func packageFile(p *catalog.Package) string {
	return fmt.Sprintf("%s_%s_%s.deb", p.Name, p.Version, p.Arch)
}

func (b *Backend) DownloadPackages(job backend.Job, ids []backend.PackageID, directory string) error {
	job.SetStatus(backend.StatusDownload)
	snap := b.store.Current()

	pkgs, err := lookup(snap, ids)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return backend.Errorf(backend.ErrorInternal, "failed to create %s: %v", directory, err)
	}

	var files []string
	for i, p := range pkgs {
		job.SetPercentage(progressOf(i, len(pkgs), 0, 100))
		if err := job.Package(backend.InfoDownloading, p.RepoID(), p.Text(job.Locale()).Summary); err != nil {
			return err
		}
		if err := b.sleep(job); err != nil {
			return err
		}

		pkg := *p
		pkg.Installed = false
		path := filepath.Join(directory, packageFile(p))
		if err := catalog.WriteFile(path, &catalog.Catalog{Packages: []catalog.Package{pkg}}); err != nil {
			return backend.Errorf(backend.ErrorInternal, "failed to write %s: %v", path, err)
		}
		files = append(files, path)
	}

	job.SetPercentage(100)
	return job.Files(backend.PackageID{}, files)
}
