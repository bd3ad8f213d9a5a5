package config

import (
	"os"
	"path/filepath"
)

type StorageConfig interface {
	GetStateFile() string
}

var _ StorageConfig = mainConfig{}

// GetStateFile returns where the client persists session state.
// Defaults to <user config dir>/hr-portal/state.json.
func (c mainConfig) GetStateFile() string {
	if c.StateFile != "" {
		return c.StateFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "hr-portal", "state.json")
}
