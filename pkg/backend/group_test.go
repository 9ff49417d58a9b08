package backend

import (
	"errors"
	"testing"
)

func TestGroupFromSection(t *testing.T) {
	tests := []struct {
		section string
		want    Group
	}{
		{"doc", GroupDocumentation},
		{"universe/doc", GroupDocumentation},
		{"contrib/net", GroupNetwork},
		{"non-free/games/x11", GroupDesktopOther},
		{"libdevel", GroupProgramming},
		{"metapackages", GroupCollections},
		{"base", GroupSystem},
		{"nonsense", GroupUnknown},
		{"", GroupUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			if got := GroupFromSection(tt.section); got != tt.want {
				t.Errorf("GroupFromSection(%q) = %q, want %q", tt.section, got, tt.want)
			}
		})
	}
}

func TestParseGroup(t *testing.T) {
	for _, g := range AllGroups {
		got, err := ParseGroup(string(g))
		if err != nil {
			t.Fatalf("ParseGroup(%q) error: %v", g, err)
		}
		if got != g {
			t.Errorf("ParseGroup(%q) = %q", g, got)
		}
	}

	if _, err := ParseGroup("spaceships"); !errors.Is(err, ErrInvalidGroup) {
		t.Errorf("expected ErrInvalidGroup, got %v", err)
	}
}
