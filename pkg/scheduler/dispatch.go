package scheduler

import (
	"fmt"
	"runtime/debug"

	"pakd/pkg/backend"
)

// dispatch invokes the adapter operation for c. A panicking adapter is
// reported as an internal error instead of taking the broker down.
func (s *Scheduler) dispatch(job backend.Job, c *call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("tid", job.ID()).Errorf("adapter panic: %v\n%s", r, debug.Stack())
			err = backend.Errorf(backend.ErrorInternal, "backend panic: %v", r)
		}
	}()

	b := s.backend
	req := c.req
	unsupported := fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)

	switch req.Role {
	case backend.RoleResolve:
		if r, ok := b.(backend.Resolver); ok {
			return r.Resolve(job, req.Filters, req.Names)
		}
	case backend.RoleSearchName:
		if r, ok := b.(backend.NameSearcher); ok {
			return r.SearchName(job, req.Filters, req.Search)
		}
	case backend.RoleSearchDetails:
		if r, ok := b.(backend.DetailsSearcher); ok {
			return r.SearchDetails(job, req.Filters, req.Search)
		}
	case backend.RoleSearchGroup:
		if r, ok := b.(backend.GroupSearcher); ok {
			return r.SearchGroup(job, req.Filters, c.group)
		}
	case backend.RoleSearchFile:
		if r, ok := b.(backend.FileSearcher); ok {
			return r.SearchFile(job, req.Filters, req.Search)
		}
	case backend.RoleGetDepends:
		if r, ok := b.(backend.DependsGetter); ok {
			return r.GetDepends(job, req.Filters, c.ids, req.Recursive)
		}
	case backend.RoleGetRequires:
		if r, ok := b.(backend.RequiresGetter); ok {
			return r.GetRequires(job, req.Filters, c.ids, req.Recursive)
		}
	case backend.RoleGetDetails:
		if r, ok := b.(backend.DetailsGetter); ok {
			return r.GetDetails(job, c.ids)
		}
	case backend.RoleGetFiles:
		if r, ok := b.(backend.FilesGetter); ok {
			return r.GetFiles(job, c.ids)
		}
	case backend.RoleGetUpdates:
		if r, ok := b.(backend.UpdatesGetter); ok {
			return r.GetUpdates(job, req.Filters)
		}
	case backend.RoleGetPackages:
		if r, ok := b.(backend.PackagesGetter); ok {
			return r.GetPackages(job, req.Filters)
		}
	case backend.RoleInstallPackages:
		if r, ok := b.(backend.Installer); ok {
			return r.InstallPackages(job, req.OnlyTrusted, c.ids)
		}
	case backend.RoleRemovePackages:
		if r, ok := b.(backend.Remover); ok {
			return r.RemovePackages(job, c.ids, req.AllowDeps, req.Autoremove)
		}
	case backend.RoleUpdatePackages:
		if r, ok := b.(backend.PackageUpdater); ok {
			return r.UpdatePackages(job, req.OnlyTrusted, c.ids)
		}
	case backend.RoleUpdateSystem:
		if r, ok := b.(backend.SystemUpdater); ok {
			return r.UpdateSystem(job, req.OnlyTrusted)
		}
	case backend.RoleRefreshCache:
		if r, ok := b.(backend.CacheRefresher); ok {
			return r.RefreshCache(job, req.Force)
		}
	case backend.RoleInstallFiles:
		if r, ok := b.(backend.FileInstaller); ok {
			return r.InstallFiles(job, req.OnlyTrusted, req.Files)
		}
	case backend.RoleInstallSignature:
		if r, ok := b.(backend.SignatureInstaller); ok {
			return r.InstallSignature(job, req.SigType, req.KeyID, c.ids[0])
		}
	case backend.RoleGetRepoList:
		if r, ok := b.(backend.RepoLister); ok {
			return r.GetRepoList(job, req.Filters)
		}
	case backend.RoleRepoEnable:
		if r, ok := b.(backend.RepoEnabler); ok {
			return r.RepoEnable(job, req.RepoID, req.Enabled)
		}
	case backend.RoleRepoSetData:
		if r, ok := b.(backend.RepoDataSetter); ok {
			return r.RepoSetData(job, req.RepoID, req.Parameter, req.Value)
		}
	case backend.RoleWhatProvides:
		if r, ok := b.(backend.ProvidesFinder); ok {
			return r.WhatProvides(job, req.Filters, req.Provides, req.Search)
		}
	case backend.RoleDownloadPackages:
		if r, ok := b.(backend.Downloader); ok {
			return r.DownloadPackages(job, c.ids, req.Directory)
		}
	case backend.RoleGetUpdateDetail:
		if r, ok := b.(backend.UpdateDetailGetter); ok {
			return r.GetUpdateDetail(job, c.ids)
		}
	case backend.RoleAcceptEula:
		if r, ok := b.(backend.EulaAcceptor); ok {
			return r.AcceptEula(job, req.EulaID)
		}
	}
	return backend.Errorf(backend.ErrorInternal, "%v", unsupported)
}
