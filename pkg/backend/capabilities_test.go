package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type queryOnly struct{}

func (queryOnly) Name() string                             { return "query-only" }
func (queryOnly) Description() string                      { return "answers questions" }
func (queryOnly) Initialize(context.Context, string) error { return nil }
func (queryOnly) Destroy() error                           { return nil }
func (queryOnly) Filters() Filter                          { return FilterInstalled | FilterNotInstalled }
func (queryOnly) Groups() []Group                          { return []Group{GroupSystem, GroupAccessories} }
func (queryOnly) MimeTypes() []string                      { return []string{"application/x-deb"} }

func (queryOnly) Resolve(Job, Filter, []string) error  { return nil }
func (queryOnly) SearchName(Job, Filter, string) error { return nil }

type lockingInstaller struct{ queryOnly }

func (lockingInstaller) ExclusiveCache() bool                         { return true }
func (lockingInstaller) InstallPackages(Job, bool, []PackageID) error { return nil }

func TestNewCapabilities(t *testing.T) {
	caps := NewCapabilities(queryOnly{})

	assert.Equal(t, "query-only", caps.Name())
	assert.True(t, caps.Supports(RoleResolve))
	assert.True(t, caps.Supports(RoleSearchName))
	assert.False(t, caps.Supports(RoleInstallPackages))
	assert.Equal(t, []Role{RoleResolve, RoleSearchName}, caps.Roles())
	assert.Equal(t, []Group{GroupAccessories, GroupSystem}, caps.Groups())
	assert.True(t, caps.HasGroup(GroupSystem))
	assert.False(t, caps.HasGroup(GroupGames))
	assert.False(t, caps.ExclusiveCache())
	assert.Equal(t, []string{"application/x-deb"}, caps.MimeTypes())

	assert.True(t, caps.SupportsFilter(FilterInstalled))
	assert.True(t, caps.SupportsFilter(FilterNone))
	assert.False(t, caps.SupportsFilter(FilterGUI))
}

func TestCapabilitiesExclusiveCache(t *testing.T) {
	caps := NewCapabilities(lockingInstaller{})

	assert.True(t, caps.ExclusiveCache())
	assert.True(t, caps.Supports(RoleInstallPackages))
	assert.True(t, caps.Supports(RoleResolve))
}

func TestRoleMutating(t *testing.T) {
	assert.True(t, RoleInstallPackages.Mutating())
	assert.True(t, RoleRefreshCache.Mutating())
	assert.False(t, RoleResolve.Mutating())
	assert.False(t, RoleGetUpdates.Mutating())
	assert.False(t, RoleDownloadPackages.Mutating())
}
