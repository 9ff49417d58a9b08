package repos

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "repos.conf")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("repo file not written: %v", err)
	}

	list := s.List()
	if len(list) != 4 {
		t.Fatalf("List() returned %d repos, want 4", len(list))
	}
	want := []string{"development", "fedora", "linva", "livna-development"}
	for i, r := range list {
		if r.ID != want[i] {
			t.Errorf("List()[%d].ID = %q, want %q", i, r.ID, want[i])
		}
	}
}

func TestGet(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		id      string
		name    string
		enabled bool
		devel   bool
	}{
		{"fedora", "Fedora - 9", true, false},
		{"development", "Fedora - Development", false, true},
		{"livna-development", "Livna for Fedora Core 8 - i386 - Development Tree", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := s.Get(tt.id)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.id, err)
			}
			if r.Name != tt.name || r.Enabled != tt.enabled || r.Devel != tt.devel {
				t.Errorf("Get(%q) = %+v", tt.id, r)
			}
			if r.Data["gpgcheck"] != "true" {
				t.Errorf("Get(%q).Data[gpgcheck] = %q", tt.id, r.Data["gpgcheck"])
			}
		})
	}

	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}

func TestSetEnabledPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.conf")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := s.SetEnabled("development", true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if err := s.Set("fedora", "metadata_expire", "1d"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reloaded.Enabled("development") {
		t.Error("development should be enabled after reload")
	}
	r, _ := reloaded.Get("fedora")
	if r.Data["metadata_expire"] != "1d" {
		t.Errorf("metadata_expire = %q, want 1d", r.Data["metadata_expire"])
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "metadata_expire") {
		t.Error("repo file does not contain the new key")
	}
}

func TestSetUnknownRepo(t *testing.T) {
	s, _ := Parse(nil)
	if err := s.SetEnabled("missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetEnabled(missing) error = %v, want ErrNotFound", err)
	}
	if s.Enabled("missing") {
		t.Error("Enabled(missing) = true")
	}
}
