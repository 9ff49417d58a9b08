// Package catalog holds the package metadata served by the sample backend:
// packages, virtual provides, pending updates and their trust requirements.
package catalog

import (
	"strings"

	"pakd/pkg/backend"
)

// Catalog is the on-disk form of a package catalog.
type Catalog struct {
	Packages []Package `yaml:"packages"`
	Updates  []Update  `yaml:"updates"`
}

// Package is one concrete package version.
type Package struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Arch        string `yaml:"arch"`
	Repo        string `yaml:"repo"`
	Section     string `yaml:"section"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	License     string `yaml:"license"`
	URL         string `yaml:"url"`
	Size        uint64 `yaml:"size"`

	Installed bool `yaml:"installed"`
	GUI       bool `yaml:"gui"`
	NonFree   bool `yaml:"non_free"`

	Depends  []string `yaml:"depends,omitempty"`
	Provides []string `yaml:"provides,omitempty"`
	Files    []string `yaml:"files,omitempty"`

	// Localized maps a locale such as "de" to translated texts.
	Localized map[string]Text `yaml:"localized,omitempty"`

	Signature *Signature `yaml:"signature,omitempty"`
	Eula      *Eula      `yaml:"eula,omitempty"`
}

// Text is a translated summary and description.
type Text struct {
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
}

// Signature describes the key a package must be signed with.
type Signature struct {
	RepoName    string `yaml:"repo_name"`
	KeyURL      string `yaml:"key_url"`
	KeyUserID   string `yaml:"key_user_id"`
	KeyID       string `yaml:"key_id"`
	Fingerprint string `yaml:"fingerprint"`
	Timestamp   string `yaml:"timestamp"`
}

// Eula is a licence that must be accepted before install.
type Eula struct {
	ID        string `yaml:"id"`
	Vendor    string `yaml:"vendor"`
	Agreement string `yaml:"agreement"`
}

// Update describes an available update for an installed package.
type Update struct {
	ID          string              `yaml:"id"`
	Info        backend.Info        `yaml:"info"`
	Obsoletes   []string            `yaml:"obsoletes,omitempty"`
	VendorURL   string              `yaml:"vendor_url,omitempty"`
	BugzillaURL string              `yaml:"bugzilla_url,omitempty"`
	CVEURL      string              `yaml:"cve_url,omitempty"`
	Restart     backend.Restart     `yaml:"restart,omitempty"`
	Text        string              `yaml:"text,omitempty"`
	Changelog   string              `yaml:"changelog,omitempty"`
	State       backend.UpdateState `yaml:"state,omitempty"`
	Issued      string              `yaml:"issued,omitempty"`
}

// ID returns the package id. Installed packages carry "installed" as data.
func (p *Package) ID() backend.PackageID {
	data := p.Repo
	if p.Installed {
		data = "installed"
	}
	return backend.PackageID{Name: p.Name, Version: p.Version, Arch: p.Arch, Data: data}
}

// RepoID returns the id the package has when it is not installed.
func (p *Package) RepoID() backend.PackageID {
	return backend.PackageID{Name: p.Name, Version: p.Version, Arch: p.Arch, Data: p.Repo}
}

// Matches reports whether id refers to p, in either its installed or its
// repository form.
func (p *Package) Matches(id backend.PackageID) bool {
	if p.Name != id.Name || p.Version != id.Version || p.Arch != id.Arch {
		return false
	}
	return id.Data == "" || id.Data == p.Repo || (id.Data == "installed" && p.Installed)
}

// Group classifies the package by its section.
func (p *Package) Group() backend.Group {
	return backend.GroupFromSection(p.Section)
}

// Devel reports whether the package carries development files.
func (p *Package) Devel() bool {
	if strings.HasSuffix(p.Name, "-devel") || strings.HasSuffix(p.Name, "-dev") || strings.HasSuffix(p.Name, "-dbg") {
		return true
	}
	return p.Group() == backend.GroupProgramming
}

// Attributes returns the properties filters are evaluated against.
func (p *Package) Attributes() backend.Attributes {
	return backend.Attributes{
		Installed:  p.Installed,
		Devel:      p.Devel(),
		GUI:        p.GUI,
		Free:       !p.NonFree,
		Collection: p.Group() == backend.GroupCollections,
	}
}

// Text returns the summary and description for locale, falling back to the
// untranslated texts. Locales such as "de_DE.UTF-8" also try "de".
func (p *Package) Text(locale string) Text {
	def := Text{Summary: p.Summary, Description: p.Description}
	if locale == "" || len(p.Localized) == 0 {
		return def
	}
	lang := locale
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	for _, key := range []string{lang, strings.SplitN(lang, "_", 2)[0]} {
		if t, ok := p.Localized[key]; ok {
			if t.Summary == "" {
				t.Summary = def.Summary
			}
			if t.Description == "" {
				t.Description = def.Description
			}
			return t
		}
	}
	return def
}

func (p *Package) clone() Package {
	c := *p
	c.Depends = append([]string(nil), p.Depends...)
	c.Provides = append([]string(nil), p.Provides...)
	c.Files = append([]string(nil), p.Files...)
	if p.Localized != nil {
		c.Localized = make(map[string]Text, len(p.Localized))
		for k, v := range p.Localized {
			c.Localized[k] = v
		}
	}
	return c
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		Packages: make([]Package, len(c.Packages)),
		Updates:  append([]Update(nil), c.Updates...),
	}
	for i := range c.Packages {
		out.Packages[i] = c.Packages[i].clone()
	}
	return out
}
