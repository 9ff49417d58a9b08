package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName     = "pakd"
	configFile  = "config.toml"
	historyFile = "history.db"
	reposFile   = "repos.conf"
	downloadDir = "downloads"
)

// ConfigDir returns the platform-specific configuration directory for pakd.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, ".config", appName)
	}
}

// DataDir returns the platform-specific data directory for pakd.
func DataDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, ".local", "share", appName)
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the transaction history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// ReposPath returns the default path of the repository definitions file.
func ReposPath() string {
	return filepath.Join(ConfigDir(), reposFile)
}

// DownloadDir returns the default directory for downloaded packages.
func DownloadDir() string {
	return filepath.Join(DataDir(), downloadDir)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}
