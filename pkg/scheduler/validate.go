package scheduler

import (
	"fmt"
	"strings"

	"pakd/pkg/backend"
	"pakd/pkg/transaction"
)

// call holds the parsed form of a request, ready for dispatch.
type call struct {
	req   transaction.Request
	ids   []backend.PackageID
	group backend.Group
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

// validate checks req against the backend capabilities. Nothing is created
// for a request that fails here.
func validate(caps *backend.Capabilities, req transaction.Request) (*call, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRole, req.Role)
	}
	if !caps.Supports(req.Role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
	}

	if err := req.Filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if !caps.SupportsFilter(req.Filters) {
		return nil, invalid("filter %s not supported by %s", req.Filters&^caps.Filters(), caps.Name())
	}

	c := &call{req: req}
	if len(req.PackageIDs) > 0 {
		ids, err := backend.ParsePackageIDs(req.PackageIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		c.ids = ids
	}

	switch req.Role {
	case backend.RoleResolve:
		if len(req.Names) == 0 {
			return nil, invalid("no package names given")
		}
		for _, n := range req.Names {
			if strings.TrimSpace(n) == "" {
				return nil, invalid("empty package name")
			}
		}

	case backend.RoleSearchName, backend.RoleSearchDetails, backend.RoleSearchFile:
		if strings.TrimSpace(req.Search) == "" {
			return nil, invalid("empty search term")
		}

	case backend.RoleWhatProvides:
		if strings.TrimSpace(req.Search) == "" {
			return nil, invalid("empty search term")
		}
		switch req.Provides {
		case "":
			c.req.Provides = backend.ProvidesAny
		case backend.ProvidesAny, backend.ProvidesCodec, backend.ProvidesMimetype,
			backend.ProvidesFont, backend.ProvidesModalias:
		default:
			return nil, invalid("unknown provides kind %q", req.Provides)
		}

	case backend.RoleSearchGroup:
		g, err := backend.ParseGroup(req.Group)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		if !caps.HasGroup(g) {
			return nil, invalid("group %s not supported by %s: %v", g, caps.Name(), backend.ErrInvalidGroup)
		}
		c.group = g

	case backend.RoleGetDepends, backend.RoleGetRequires, backend.RoleGetDetails,
		backend.RoleGetFiles, backend.RoleInstallPackages, backend.RoleRemovePackages,
		backend.RoleUpdatePackages, backend.RoleGetUpdateDetail:
		if len(c.ids) == 0 {
			return nil, invalid("no package ids given")
		}

	case backend.RoleDownloadPackages:
		if len(c.ids) == 0 {
			return nil, invalid("no package ids given")
		}
		if req.Directory == "" {
			return nil, invalid("no download directory given")
		}

	case backend.RoleInstallFiles:
		if len(req.Files) == 0 {
			return nil, invalid("no files given")
		}

	case backend.RoleInstallSignature:
		if len(c.ids) != 1 {
			return nil, invalid("exactly one package id required")
		}
		if req.KeyID == "" {
			return nil, invalid("no key id given")
		}
		if req.SigType == "" {
			c.req.SigType = backend.SigTypeGPG
		} else if req.SigType != backend.SigTypeGPG {
			return nil, invalid("unknown signature type %q", req.SigType)
		}

	case backend.RoleRepoEnable:
		if req.RepoID == "" {
			return nil, invalid("no repository id given")
		}

	case backend.RoleRepoSetData:
		if req.RepoID == "" || req.Parameter == "" {
			return nil, invalid("repository id and parameter are required")
		}

	case backend.RoleAcceptEula:
		if req.EulaID == "" {
			return nil, invalid("no eula id given")
		}
	}

	return c, nil
}
