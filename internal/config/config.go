package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

// Config holds all vmlaunch configuration.
type Config struct {
	// BundleDir is the persistent VM bundle directory.
	BundleDir string `mapstructure:"bundle_dir"`

	// CPUs is the number of virtual CPUs allocated to the VM.
	CPUs uint `mapstructure:"cpus"`

	// Memory is the guest RAM as a human readable size ("2GiB").
	Memory string `mapstructure:"memory"`

	// DiskSize is the main disk capacity used when the bundle is created.
	DiskSize string `mapstructure:"disk_size"`

	// MACAddress is an optional custom MAC address (empty = auto-generate).
	MACAddress string `mapstructure:"mac_address"`

	// Rosetta shares the host x86_64 translator with the guest.
	Rosetta bool `mapstructure:"rosetta"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// Timing prints startup phase durations to stderr.
	Timing bool `mapstructure:"timing"`
}

// DefaultConfig returns a Config with the launcher's fixed defaults.
func DefaultConfig() *Config {
	bundleDir := DefaultBundleName
	if paths, err := GetPaths(); err == nil {
		bundleDir = paths.BundleDir
	}

	return &Config{
		BundleDir:  bundleDir,
		CPUs:       2,
		Memory:     "2GiB",
		DiskSize:   "64GiB",
		MACAddress: "",
		Rosetta:    false,
		LogLevel:   "info",
		Timing:     false,
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("bundle_dir", defaults.BundleDir)
	v.SetDefault("cpus", defaults.CPUs)
	v.SetDefault("memory", defaults.Memory)
	v.SetDefault("disk_size", defaults.DiskSize)
	v.SetDefault("mac_address", defaults.MACAddress)
	v.SetDefault("rosetta", defaults.Rosetta)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("timing", defaults.Timing)
}

// Load reads configuration from file and defaults into a Config. Flags bound
// to v take precedence over both. When configFile is empty the platform
// config directory is searched and a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		if paths, err := GetPaths(); err == nil {
			v.AddConfigPath(paths.ConfigDir)
		}
	}

	// Read config file (optional - not an error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Errorf("parse config: %w", err)
	}

	bundleDir, err := ExpandHome(cfg.BundleDir)
	if err != nil {
		return nil, err
	}
	cfg.BundleDir = bundleDir

	return cfg, nil
}

// MemoryBytes parses Memory.
func (c *Config) MemoryBytes() (uint64, error) {
	n, err := humanize.ParseBytes(c.Memory)
	if err != nil {
		return 0, errors.Errorf("memory %q: %w", c.Memory, err)
	}
	return n, nil
}

// DiskSizeBytes parses DiskSize.
func (c *Config) DiskSizeBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.DiskSize)
	if err != nil {
		return 0, errors.Errorf("disk size %q: %w", c.DiskSize, err)
	}
	if n > 1<<62 {
		return 0, errors.Errorf("disk size %q is too large", c.DiskSize)
	}
	return int64(n), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
