package config

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories.
const AppName = "loadmaster"

// Dir returns the configuration directory ($XDG_CONFIG_HOME/loadmaster,
// defaulting to ~/.config/loadmaster).
func Dir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the metadata cache directory ($XDG_CACHE_HOME/loadmaster,
// defaulting to ~/.cache/loadmaster).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// DataDir returns the directory holding the SQLite store
// ($XDG_DATA_HOME/loadmaster, defaulting to ~/.local/share/loadmaster).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
