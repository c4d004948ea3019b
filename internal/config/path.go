package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "spice-transfers"

// ExpandPath resolves environment variables and a leading ~ in a configured
// path. Variables are expanded first, so "$HOME/x" and "~/x" agree.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DataDir is where the database lives by default: $XDG_DATA_HOME/spice-transfers,
// falling back to ~/.local/share/spice-transfers, or the working directory
// when no home is known.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", appDir)
}

// DefaultDatabasePath returns the database location used when none is configured.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), "spice.db")
}
