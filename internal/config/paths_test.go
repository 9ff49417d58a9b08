package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// useXDG points the config and data directories into a temp dir.
func useXDG(t *testing.T) (configHome, dataHome string) {
	t.Helper()
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG not used on this platform")
	}
	tmp := t.TempDir()
	configHome = filepath.Join(tmp, "config")
	dataHome = filepath.Join(tmp, "data")
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	return configHome, dataHome
}

func TestPaths(t *testing.T) {
	configHome, dataHome := useXDG(t)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config dir", ConfigDir(), filepath.Join(configHome, "pakd")},
		{"data dir", DataDir(), filepath.Join(dataHome, "pakd")},
		{"config file", ConfigPath(), filepath.Join(configHome, "pakd", "config.toml")},
		{"repos file", ReposPath(), filepath.Join(configHome, "pakd", "repos.conf")},
		{"history", HistoryPath(), filepath.Join(dataHome, "pakd", "history.db")},
		{"downloads", DownloadDir(), filepath.Join(dataHome, "pakd", "downloads")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestReposFileXDG(t *testing.T) {
	useXDG(t)

	cfg := Default()
	if got := cfg.ReposFile(); got != ReposPath() {
		t.Errorf("ReposFile() = %s, want default %s", got, ReposPath())
	}

	cfg.Backend.Repos = "/etc/pakd/repos.conf"
	if got := cfg.ReposFile(); got != "/etc/pakd/repos.conf" {
		t.Errorf("ReposFile() = %s, want configured path", got)
	}
}

func TestReposFileFromLoadedConfig(t *testing.T) {
	useXDG(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[backend]\nrepos = \"/srv/repos.conf\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if got := cfg.ReposFile(); got != "/srv/repos.conf" {
		t.Errorf("ReposFile() = %s, want /srv/repos.conf", got)
	}
}

func TestEnsureDirs(t *testing.T) {
	useXDG(t)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error: %v", err)
	}
	if err := EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir() error: %v", err)
	}
	for _, dir := range []string{ConfigDir(), DataDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("%s not created: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
	// Downloads are created on demand by the backend, not up front.
	if _, err := os.Stat(DownloadDir()); !os.IsNotExist(err) {
		t.Errorf("DownloadDir() should not exist yet: %v", err)
	}
}
