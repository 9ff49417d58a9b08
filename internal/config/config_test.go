package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.General.Backend != "sample" {
		t.Errorf("expected default backend 'sample', got %q", cfg.General.Backend)
	}
	if !cfg.General.Online {
		t.Error("expected Online to be true by default")
	}

	if cfg.Scheduler.CancelGrace.Duration != 1500*time.Millisecond {
		t.Errorf("expected cancel grace 1.5s, got %v", cfg.Scheduler.CancelGrace)
	}
	if cfg.Scheduler.HistoryMax != 500 {
		t.Errorf("expected history max 500, got %d", cfg.Scheduler.HistoryMax)
	}
	if cfg.Backend.Tick.Duration != 100*time.Millisecond {
		t.Errorf("expected tick 100ms, got %v", cfg.Backend.Tick)
	}

	if !cfg.Output.Color {
		t.Error("expected Color to be true by default")
	}
	if cfg.Output.Verbose {
		t.Error("expected Verbose to be false by default")
	}
}

func TestResolveAlias(t *testing.T) {
	cfg := &Config{
		Aliases: map[string]string{
			"vips":    "vips-doc",
			"gtkhtml": "gtkhtml2",
		},
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"vips", "vips-doc"},
		{"gtkhtml", "gtkhtml2"},
		{"kernel", "kernel"}, // No alias, returns original
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := cfg.ResolveAlias(tt.input)
			if result != tt.expected {
				t.Errorf("ResolveAlias(%s) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestResolveAliases(t *testing.T) {
	cfg := &Config{
		Aliases: map[string]string{
			"vips": "vips-doc",
		},
	}

	input := []string{"vips", "glib2", "powertop"}
	expected := []string{"vips-doc", "glib2", "powertop"}

	result := cfg.ResolveAliases(input)

	if len(result) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(result))
	}

	for i, r := range result {
		if r != expected[i] {
			t.Errorf("result[%d] = %s, want %s", i, r, expected[i])
		}
	}
}

func TestReposFile(t *testing.T) {
	cfg := Default()
	if cfg.ReposFile() != ReposPath() {
		t.Errorf("expected default repos file %s, got %s", ReposPath(), cfg.ReposFile())
	}

	cfg.Backend.Repos = "/etc/pakd/repos.conf"
	if cfg.ReposFile() != "/etc/pakd/repos.conf" {
		t.Errorf("expected configured repos file, got %s", cfg.ReposFile())
	}
}

func TestShouldUseColor(t *testing.T) {
	cfg := &Config{
		Output: OutputConfig{Color: true},
	}

	// Should return true when Color is true and NO_COLOR is not set
	os.Unsetenv("NO_COLOR")
	if !cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return true")
	}

	// Should return false when NO_COLOR is set
	os.Setenv("NO_COLOR", "1")
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when NO_COLOR is set")
	}
	os.Unsetenv("NO_COLOR")

	// Should return false when Color is false
	cfg.Output.Color = false
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when Color is false")
	}
}

func TestLoadSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.toml")

	cfg := Default()
	cfg.Aliases["vips"] = "vips-doc"
	cfg.Scheduler.CancelGrace = Duration{3 * time.Second}
	cfg.General.Online = false

	err := cfg.SaveTo(configPath)
	if err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if loaded.ResolveAlias("vips") != "vips-doc" {
		t.Error("loaded config doesn't have expected alias")
	}
	if loaded.Scheduler.CancelGrace.Duration != 3*time.Second {
		t.Errorf("expected cancel grace 3s, got %v", loaded.Scheduler.CancelGrace)
	}
	if loaded.General.Online {
		t.Error("expected Online to round-trip as false")
	}
}

func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	data := "[scheduler]\ncancel_grace = \"250ms\"\n\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if cfg.Scheduler.CancelGrace.Duration != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Scheduler.CancelGrace)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
	// Unset keys keep their defaults
	if cfg.Scheduler.ArchiveSize != 64 {
		t.Errorf("expected default archive size, got %d", cfg.Scheduler.ArchiveSize)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[backend]\ntick = \"soon\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	// Loading non-existent file should return default config
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadFrom() should not error for non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadFrom() should return default config for non-existent file")
	}

	if !cfg.Output.Color {
		t.Error("expected default Color to be true")
	}
}
