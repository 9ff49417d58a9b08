// Package backend defines the contract between the transaction broker and
// the package-management engines that do the actual work.
package backend

import "context"

// Backend is a loaded package-management engine. Operations are offered by
// implementing the optional role interfaces below; the broker only dispatches
// roles the backend implements.
type Backend interface {
	// Name returns the short identifier for this backend (e.g., "sample").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Initialize loads the backend. It is called once before any dispatch.
	Initialize(ctx context.Context, locale string) error

	// Destroy releases backend resources.
	Destroy() error

	// Filters returns the filter predicates the backend honours.
	Filters() Filter

	// Groups returns the groups the backend can classify packages into.
	Groups() []Group

	// MimeTypes returns the file types accepted by InstallFiles.
	MimeTypes() []string
}

// CacheLocker is implemented by backends whose cache cannot be read while a
// mutating transaction writes it.
type CacheLocker interface {
	ExclusiveCache() bool
}

// Job is the view of a running transaction handed to a backend. Emission
// methods return an error once the transaction has been closed; the backend
// should stop work when that happens.
type Job interface {
	// Context is cancelled when a cancellation request has been honoured.
	Context() context.Context

	ID() string
	Role() Role
	Locale() string

	// Cancelled reports whether the backend should stop at the next safe
	// checkpoint. It is always false while cancellation is disallowed.
	Cancelled() bool

	SetAllowCancel(allow bool)
	SetStatus(status Status)
	SetPercentage(percent int)
	SetSubPercentage(percent int)

	Package(info Info, id PackageID, summary string) error
	Details(d Details) error
	Files(id PackageID, files []string) error
	UpdateDetail(d UpdateDetail) error
	RepoDetail(d RepoDetail) error
	RepoSignatureRequired(sig RepoSignature) error
	EulaRequired(eula Eula) error
	RequireRestart(restart Restart, id PackageID) error
}

// Role interfaces. A backend returns nil on success, ErrCancelled when it
// stopped early on request, or an *Error describing a runtime failure.

type Resolver interface {
	Resolve(job Job, filters Filter, names []string) error
}

type NameSearcher interface {
	SearchName(job Job, filters Filter, search string) error
}

type DetailsSearcher interface {
	SearchDetails(job Job, filters Filter, search string) error
}

type GroupSearcher interface {
	SearchGroup(job Job, filters Filter, group Group) error
}

type FileSearcher interface {
	SearchFile(job Job, filters Filter, path string) error
}

type DependsGetter interface {
	GetDepends(job Job, filters Filter, ids []PackageID, recursive bool) error
}

type RequiresGetter interface {
	GetRequires(job Job, filters Filter, ids []PackageID, recursive bool) error
}

type DetailsGetter interface {
	GetDetails(job Job, ids []PackageID) error
}

type FilesGetter interface {
	GetFiles(job Job, ids []PackageID) error
}

type UpdatesGetter interface {
	GetUpdates(job Job, filters Filter) error
}

type PackagesGetter interface {
	GetPackages(job Job, filters Filter) error
}

type Installer interface {
	InstallPackages(job Job, onlyTrusted bool, ids []PackageID) error
}

type Remover interface {
	RemovePackages(job Job, ids []PackageID, allowDeps, autoremove bool) error
}

type PackageUpdater interface {
	UpdatePackages(job Job, onlyTrusted bool, ids []PackageID) error
}

type SystemUpdater interface {
	UpdateSystem(job Job, onlyTrusted bool) error
}

type CacheRefresher interface {
	RefreshCache(job Job, force bool) error
}

type FileInstaller interface {
	InstallFiles(job Job, onlyTrusted bool, paths []string) error
}

type SignatureInstaller interface {
	InstallSignature(job Job, sigType SigType, keyID string, id PackageID) error
}

type RepoLister interface {
	GetRepoList(job Job, filters Filter) error
}

type RepoEnabler interface {
	RepoEnable(job Job, repoID string, enabled bool) error
}

type RepoDataSetter interface {
	RepoSetData(job Job, repoID, parameter, value string) error
}

type ProvidesFinder interface {
	WhatProvides(job Job, filters Filter, provides Provides, search string) error
}

type Downloader interface {
	DownloadPackages(job Job, ids []PackageID, directory string) error
}

type UpdateDetailGetter interface {
	GetUpdateDetail(job Job, ids []PackageID) error
}

type EulaAcceptor interface {
	AcceptEula(job Job, eulaID string) error
}
