package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete pakd configuration.
type Config struct {
	General   GeneralConfig     `toml:"general"`
	Scheduler SchedulerConfig   `toml:"scheduler"`
	Backend   BackendConfig     `toml:"backend"`
	Output    OutputConfig      `toml:"output"`
	Log       LogConfig         `toml:"log"`
	Aliases   map[string]string `toml:"aliases"`
}

// GeneralConfig contains general pakd settings.
type GeneralConfig struct {
	// Backend names the adapter to load.
	Backend string `toml:"backend"`

	// Locale is passed to the backend for localized descriptions.
	Locale string `toml:"locale"`

	// Online reports whether network operations may be attempted.
	Online bool `toml:"online"`
}

// SchedulerConfig controls transaction admission and archival.
type SchedulerConfig struct {
	// CancelGrace bounds how long a honoured cancel may take before the
	// transaction is forced into the cancelled state.
	CancelGrace Duration `toml:"cancel_grace"`

	// HistoryMax is the number of history records kept on disk.
	HistoryMax int `toml:"history_max"`

	// HistoryMaxAge prunes older history records at startup.
	HistoryMaxAge Duration `toml:"history_max_age"`

	// ArchiveSize is the number of finished transactions kept in memory
	// for event replay.
	ArchiveSize int `toml:"archive_size"`
}

// BackendConfig configures the sample backend.
type BackendConfig struct {
	// Catalog is a YAML (or .yaml.xz) package catalog. Empty uses the
	// built-in catalog.
	Catalog string `toml:"catalog"`

	// Repos is the INI repository file. Empty uses ReposPath().
	Repos string `toml:"repos"`

	// FileIndex is the sqlite file index. Empty keeps it in memory.
	FileIndex string `toml:"file_index"`

	// Tick is the length of one simulated progress step.
	Tick Duration `toml:"tick"`

	// ExclusiveCache makes mutations wait for running queries to drain.
	ExclusiveCache bool `toml:"exclusive_cache"`

	// Watch reloads the catalog when its file changes.
	Watch bool `toml:"watch"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is a logrus level name.
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Duration is a time.Duration stored as a string such as "1.5s".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			Backend: "sample",
			Locale:  "C",
			Online:  true,
		},
		Scheduler: SchedulerConfig{
			CancelGrace:   Duration{1500 * time.Millisecond},
			HistoryMax:    500,
			HistoryMaxAge: Duration{720 * time.Hour},
			ArchiveSize:   64,
		},
		Backend: BackendConfig{
			Tick: Duration{100 * time.Millisecond},
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Verbose: false,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Aliases: map[string]string{},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ResolveAlias returns the actual package name for an alias, or the original name if no alias exists.
func (c *Config) ResolveAlias(pkg string) string {
	if alias, ok := c.Aliases[pkg]; ok {
		return alias
	}
	return pkg
}

// ResolveAliases resolves all aliases in a list of package names.
func (c *Config) ResolveAliases(packages []string) []string {
	resolved := make([]string, len(packages))
	for i, pkg := range packages {
		resolved[i] = c.ResolveAlias(pkg)
	}
	return resolved
}

// ReposFile returns the repository file to use.
func (c *Config) ReposFile() string {
	if c.Backend.Repos != "" {
		return c.Backend.Repos
	}
	return ReposPath()
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
