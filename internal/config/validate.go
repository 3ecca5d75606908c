package config

import (
	"fmt"
	"net"
	"runtime"
	"strings"

	"github.com/javanstorm/vmlaunch/internal/logging"
	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = can't proceed, false = will be ignored
}

// ValidateConfig checks configuration against platform capabilities.
// Returns a list of validation errors/warnings.
func ValidateConfig(cfg *Config, caps hypervisor.Capabilities) []ValidationError {
	var errs []ValidationError

	if cfg.BundleDir == "" {
		errs = append(errs, ValidationError{
			Field:   "bundle_dir",
			Message: "bundle directory must not be empty",
			Fatal:   true,
		})
	}

	if cfg.CPUs < 1 {
		errs = append(errs, ValidationError{
			Field:   "cpus",
			Message: "at least one CPU is required",
			Fatal:   true,
		})
	} else if int(cfg.CPUs) > runtime.NumCPU() {
		errs = append(errs, ValidationError{
			Field:   "cpus",
			Message: fmt.Sprintf("%d CPUs requested but the host has %d", cfg.CPUs, runtime.NumCPU()),
		})
	}

	if memory, err := cfg.MemoryBytes(); err != nil {
		errs = append(errs, ValidationError{Field: "memory", Message: err.Error(), Fatal: true})
	} else if memory < hypervisor.MinMemoryBytes {
		errs = append(errs, ValidationError{
			Field:   "memory",
			Message: fmt.Sprintf("%s is below the 128MiB minimum", cfg.Memory),
			Fatal:   true,
		})
	}

	if size, err := cfg.DiskSizeBytes(); err != nil {
		errs = append(errs, ValidationError{Field: "disk_size", Message: err.Error(), Fatal: true})
	} else if size <= 0 {
		errs = append(errs, ValidationError{
			Field:   "disk_size",
			Message: "disk size must be positive",
			Fatal:   true,
		})
	}

	if cfg.MACAddress != "" {
		if _, err := net.ParseMAC(cfg.MACAddress); err != nil {
			errs = append(errs, ValidationError{Field: "mac_address", Message: err.Error(), Fatal: true})
		}
	}

	if cfg.Rosetta && !caps.Rosetta {
		errs = append(errs, ValidationError{
			Field:   "rosetta",
			Message: "Rosetta is only available on Apple silicon hosts",
			Fatal:   true,
		})
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, ValidationError{Field: "log_level", Message: err.Error(), Fatal: true})
	}

	return errs
}

// HasFatal reports whether any validation error prevents a launch.
func HasFatal(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Fatal {
			return true
		}
	}
	return false
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration warnings:\n")
	for _, e := range errs {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}
