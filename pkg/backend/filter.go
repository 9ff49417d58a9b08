package backend

import (
	"fmt"
	"strings"
)

// Filter is a set of predicates narrowing query results.
type Filter uint64

const FilterNone Filter = 0

const (
	FilterInstalled Filter = 1 << iota
	FilterNotInstalled
	FilterDevel
	FilterNotDevel
	FilterGUI
	FilterNotGUI
	FilterFree
	FilterNotFree
	FilterCollections
	FilterNotCollections
	FilterNewest
	FilterNotNewest
)

var filterNames = []struct {
	f    Filter
	name string
}{
	{FilterInstalled, "installed"},
	{FilterNotInstalled, "not-installed"},
	{FilterDevel, "devel"},
	{FilterNotDevel, "not-devel"},
	{FilterGUI, "gui"},
	{FilterNotGUI, "not-gui"},
	{FilterFree, "free"},
	{FilterNotFree, "not-free"},
	{FilterCollections, "collections"},
	{FilterNotCollections, "not-collections"},
	{FilterNewest, "newest"},
	{FilterNotNewest, "not-newest"},
}

// contradictions pairs each positive predicate with its negation.
var contradictions = [][2]Filter{
	{FilterInstalled, FilterNotInstalled},
	{FilterDevel, FilterNotDevel},
	{FilterGUI, FilterNotGUI},
	{FilterFree, FilterNotFree},
	{FilterCollections, FilterNotCollections},
	{FilterNewest, FilterNotNewest},
}

// ParseFilter parses a list such as "installed;~devel" or "gui,not-free".
// The "~" prefix is accepted as a synonym for "not-".
func ParseFilter(s string) (Filter, error) {
	var f Filter
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		tok = strings.TrimSpace(tok)
		if tok == "" || tok == "none" {
			continue
		}
		if strings.HasPrefix(tok, "~") {
			tok = "not-" + tok[1:]
		}
		found := false
		for _, fn := range filterNames {
			if fn.name == tok {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFilter, tok)
		}
	}
	return f, nil
}

// Has reports whether every predicate in o is set in f.
func (f Filter) Has(o Filter) bool {
	return f&o == o && o != 0
}

// Validate rejects sets containing a predicate together with its negation.
func (f Filter) Validate() error {
	for _, pair := range contradictions {
		if f&pair[0] != 0 && f&pair[1] != 0 {
			return fmt.Errorf("%w: %s", ErrContradictoryFilter, (pair[0] | pair[1]).String())
		}
	}
	return nil
}

// String returns the ";"-separated predicate names, or "none".
func (f Filter) String() string {
	if f == FilterNone {
		return "none"
	}
	var names []string
	for _, fn := range filterNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ";")
}

// Attributes are the package properties filters are evaluated against.
type Attributes struct {
	Installed  bool
	Devel      bool
	GUI        bool
	Free       bool
	Collection bool
}

// Match reports whether a package with the given attributes passes f.
// Newest/not-newest need the full candidate set and are left to the adapter.
func (f Filter) Match(a Attributes) bool {
	check := func(pos, neg Filter, v bool) bool {
		if f&pos != 0 && !v {
			return false
		}
		if f&neg != 0 && v {
			return false
		}
		return true
	}
	return check(FilterInstalled, FilterNotInstalled, a.Installed) &&
		check(FilterDevel, FilterNotDevel, a.Devel) &&
		check(FilterGUI, FilterNotGUI, a.GUI) &&
		check(FilterFree, FilterNotFree, a.Free) &&
		check(FilterCollections, FilterNotCollections, a.Collection)
}
