package transaction

import "pakd/pkg/backend"

// Request carries the role and parameters of a submitted transaction. Only
// the fields used by Role are consulted.
type Request struct {
	Role    backend.Role   `json:"role"`
	Filters backend.Filter `json:"filters,omitempty"`

	// PackageIDs are raw "name;version;arch;data" strings. They are parsed
	// at admission and rejected there if malformed.
	PackageIDs []string `json:"package_ids,omitempty"`
	Names      []string `json:"names,omitempty"`
	Search     string   `json:"search,omitempty"`
	Group      string   `json:"group,omitempty"`
	Files      []string `json:"files,omitempty"`

	Recursive   bool `json:"recursive,omitempty"`
	AllowDeps   bool `json:"allow_deps,omitempty"`
	Autoremove  bool `json:"autoremove,omitempty"`
	Force       bool `json:"force,omitempty"`
	OnlyTrusted bool `json:"only_trusted,omitempty"`
	Enabled     bool `json:"enabled,omitempty"`

	RepoID    string           `json:"repo_id,omitempty"`
	Parameter string           `json:"parameter,omitempty"`
	Value     string           `json:"value,omitempty"`
	Provides  backend.Provides `json:"provides,omitempty"`
	Directory string           `json:"directory,omitempty"`
	EulaID    string           `json:"eula_id,omitempty"`
	KeyID     string           `json:"key_id,omitempty"`
	SigType   backend.SigType  `json:"sig_type,omitempty"`
}

// Summary returns a short description of the request arguments for logs
// and history records.
func (r Request) Summary() string {
	switch {
	case len(r.PackageIDs) > 0:
		return joinLimited(r.PackageIDs)
	case len(r.Names) > 0:
		return joinLimited(r.Names)
	case len(r.Files) > 0:
		return joinLimited(r.Files)
	case r.Search != "":
		return r.Search
	case r.Group != "":
		return r.Group
	case r.RepoID != "":
		return r.RepoID
	case r.EulaID != "":
		return r.EulaID
	case r.KeyID != "":
		return r.KeyID
	}
	return ""
}

func joinLimited(items []string) string {
	const limit = 3
	out := ""
	for i, s := range items {
		if i == limit {
			return out + ", ..."
		}
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
