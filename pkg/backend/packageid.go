package backend

import (
	"fmt"
	"strings"
)

// PackageID is the identity of a package: name, version, architecture and
// origin data (a repository id, or "installed").
type PackageID struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Arch    string `json:"arch"`
	Data    string `json:"data"`
}

// ParsePackageID parses the "name;version;arch;data" form.
func ParsePackageID(s string) (PackageID, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return PackageID{}, fmt.Errorf("%w: %q has %d fields, want 4", ErrInvalidPackageID, s, len(parts))
	}
	if parts[0] == "" {
		return PackageID{}, fmt.Errorf("%w: %q has no name", ErrInvalidPackageID, s)
	}
	return PackageID{Name: parts[0], Version: parts[1], Arch: parts[2], Data: parts[3]}, nil
}

// ParsePackageIDs parses every id in ids, failing on the first malformed one.
func ParsePackageIDs(ids []string) ([]PackageID, error) {
	out := make([]PackageID, 0, len(ids))
	for _, s := range ids {
		id, err := ParsePackageID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// String returns the "name;version;arch;data" form.
func (p PackageID) String() string {
	return p.Name + ";" + p.Version + ";" + p.Arch + ";" + p.Data
}

// IsZero reports whether p is the empty id.
func (p PackageID) IsZero() bool {
	return p == PackageID{}
}

// Compare orders ids by name, then version, then architecture, then data.
func (p PackageID) Compare(o PackageID) int {
	if c := strings.Compare(p.Name, o.Name); c != 0 {
		return c
	}
	if c := CompareVersions(p.Version, o.Version); c != 0 {
		return c
	}
	if c := strings.Compare(p.Arch, o.Arch); c != 0 {
		return c
	}
	return strings.Compare(p.Data, o.Data)
}

// CompareVersions compares two version strings segment by segment, treating
// runs of digits numerically.
func CompareVersions(a, b string) int {
	for a != "" || b != "" {
		da, ra := splitDigits(a)
		db, rb := splitDigits(b)
		if da != "" && db != "" {
			if c := compareNumeric(da, db); c != 0 {
				return c
			}
			a, b = ra, rb
			continue
		}
		if a == "" || b == "" || a[0] != b[0] {
			return strings.Compare(a, b)
		}
		a, b = a[1:], b[1:]
	}
	return 0
}

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
