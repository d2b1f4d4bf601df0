package utils

import (
	"os"
	"path/filepath"
)

// GetProjectRoot returns the closest directory above the working directory
// holding a go.mod, or "." when there is none.
func GetProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}

// GetUserDataDir returns the per-user directory sessions are stored in.
func GetUserDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "phonelogin")
	}
	return filepath.Join(GetProjectRoot(), ".phonelogin")
}
