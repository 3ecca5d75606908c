// Package config provides configuration management for vmlaunch.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultBundleName is the bundle directory created in the home directory.
const DefaultBundleName = "VMLaunch.bundle"

// Paths holds platform-specific paths for vmlaunch.
type Paths struct {
	// ConfigDir is the directory for configuration files.
	// macOS: ~/Library/Application Support/VMLaunch
	// Others: ~/.config/vmlaunch
	ConfigDir string

	// ConfigFile is the path to the main config file.
	ConfigFile string

	// BundleDir is the default VM bundle: ~/VMLaunch.bundle
	BundleDir string
}

// GetPaths returns platform-aware paths for vmlaunch.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	p := &Paths{
		BundleDir: filepath.Join(home, DefaultBundleName),
	}

	switch runtime.GOOS {
	case "darwin":
		p.ConfigDir = filepath.Join(home, "Library", "Application Support", "VMLaunch")
	default:
		p.ConfigDir = filepath.Join(home, ".config", "vmlaunch")
	}

	p.ConfigFile = filepath.Join(p.ConfigDir, "config.yaml")

	return p, nil
}
