package backend

import "sort"

// Capabilities describes what a loaded backend supports. It is built once
// and never modified, so it is safe for concurrent use without locking.
type Capabilities struct {
	name           string
	roles          map[Role]bool
	filters        Filter
	groups         map[Group]bool
	mimeTypes      []string
	exclusiveCache bool
}

// NewCapabilities probes b for the role interfaces it implements.
func NewCapabilities(b Backend) *Capabilities {
	c := &Capabilities{
		name:      b.Name(),
		roles:     make(map[Role]bool),
		filters:   b.Filters(),
		groups:    make(map[Group]bool),
		mimeTypes: append([]string(nil), b.MimeTypes()...),
	}

	for _, g := range b.Groups() {
		c.groups[g] = true
	}
	if cl, ok := b.(CacheLocker); ok {
		c.exclusiveCache = cl.ExclusiveCache()
	}

	probes := map[Role]bool{}
	_, probes[RoleResolve] = b.(Resolver)
	_, probes[RoleSearchName] = b.(NameSearcher)
	_, probes[RoleSearchDetails] = b.(DetailsSearcher)
	_, probes[RoleSearchGroup] = b.(GroupSearcher)
	_, probes[RoleSearchFile] = b.(FileSearcher)
	_, probes[RoleGetDepends] = b.(DependsGetter)
	_, probes[RoleGetRequires] = b.(RequiresGetter)
	_, probes[RoleGetDetails] = b.(DetailsGetter)
	_, probes[RoleGetFiles] = b.(FilesGetter)
	_, probes[RoleGetUpdates] = b.(UpdatesGetter)
	_, probes[RoleGetPackages] = b.(PackagesGetter)
	_, probes[RoleInstallPackages] = b.(Installer)
	_, probes[RoleRemovePackages] = b.(Remover)
	_, probes[RoleUpdatePackages] = b.(PackageUpdater)
	_, probes[RoleUpdateSystem] = b.(SystemUpdater)
	_, probes[RoleRefreshCache] = b.(CacheRefresher)
	_, probes[RoleInstallFiles] = b.(FileInstaller)
	_, probes[RoleInstallSignature] = b.(SignatureInstaller)
	_, probes[RoleGetRepoList] = b.(RepoLister)
	_, probes[RoleRepoEnable] = b.(RepoEnabler)
	_, probes[RoleRepoSetData] = b.(RepoDataSetter)
	_, probes[RoleWhatProvides] = b.(ProvidesFinder)
	_, probes[RoleDownloadPackages] = b.(Downloader)
	_, probes[RoleGetUpdateDetail] = b.(UpdateDetailGetter)
	_, probes[RoleAcceptEula] = b.(EulaAcceptor)

	for role, ok := range probes {
		if ok {
			c.roles[role] = true
		}
	}
	return c
}

// Name returns the backend name.
func (c *Capabilities) Name() string {
	return c.name
}

// Supports reports whether the backend implements role.
func (c *Capabilities) Supports(role Role) bool {
	return c.roles[role]
}

// Roles returns the supported roles in canonical order.
func (c *Capabilities) Roles() []Role {
	var roles []Role
	for _, r := range AllRoles {
		if c.roles[r] {
			roles = append(roles, r)
		}
	}
	return roles
}

// Filters returns the supported filter predicates.
func (c *Capabilities) Filters() Filter {
	return c.filters
}

// SupportsFilter reports whether every predicate in f is supported.
func (c *Capabilities) SupportsFilter(f Filter) bool {
	return f&^c.filters == 0
}

// Groups returns the supported groups, sorted.
func (c *Capabilities) Groups() []Group {
	groups := make([]Group, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// HasGroup reports whether g is a supported group.
func (c *Capabilities) HasGroup(g Group) bool {
	return c.groups[g]
}

// MimeTypes returns the file types accepted by InstallFiles.
func (c *Capabilities) MimeTypes() []string {
	return append([]string(nil), c.mimeTypes...)
}

// ExclusiveCache reports whether mutating transactions must wait for running
// queries to drain.
func (c *Capabilities) ExclusiveCache() bool {
	return c.exclusiveCache
}
