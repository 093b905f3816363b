// Package config provides helpers for user-supplied configuration values.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves ~ and $VAR references in a configured file path, so
// database and export locations like "~/.local/share/dealfinder/dealfinder.db"
// or "$HOME/deals.json" work as users expect. A failed home lookup leaves the
// tilde in place rather than guessing.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
