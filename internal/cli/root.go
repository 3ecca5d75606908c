// Package cli provides the command-line interface for vmlaunch.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/internal/config"
	"github.com/javanstorm/vmlaunch/internal/terminal"
	"github.com/javanstorm/vmlaunch/internal/vm"
	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 64 // EX_USAGE
)

// UsageError reports a malformed command line.
type UsageError struct {
	Reason string
	Usage  string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// app carries everything a command invocation depends on.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	v         *viper.Viper
	newDriver func() (hypervisor.Driver, error)
	terminal  vm.Terminal

	configFile string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		v:         viper.New(),
		newDriver: hypervisor.NewDriver,
		terminal:  terminal.Current(),
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vmlaunch [flags] <installer-image>",
		Short: "Boot a Linux installer in a persistent virtual machine",
		Long: `vmlaunch boots a single Linux virtual machine from an installer image.

The first run creates a VM bundle holding the EFI variable store, a sparse
64GiB main disk and a stable machine identifier. Later runs reuse them, so
the installed system survives. The installer is attached read-only ahead of
the main disk and the guest serial console is wired to this terminal.`,
		Args:          installerArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runLaunch,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error(), Usage: cmd.UsageString()}
	})

	// Persistent so the config command shows the same merge a launch would use
	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is config.yaml in the user config directory)")
	pf.String("bundle", "", "VM bundle directory (default ~/VMLaunch.bundle)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Uint("cpus", 0, "number of virtual CPUs (default 2)")
	pf.String("memory", "", "guest memory, e.g. 4GiB (default 2GiB)")
	pf.String("disk-size", "", "main disk capacity when the bundle is created (default 64GiB)")
	pf.String("mac-address", "", "guest MAC address (default random)")
	pf.Bool("rosetta", false, "share Rosetta with the guest (Apple silicon only)")
	pf.Bool("timing", false, "print startup phase timing to stderr")

	for key, flag := range map[string]string{
		"bundle_dir":  "bundle",
		"log_level":   "log-level",
		"cpus":        "cpus",
		"memory":      "memory",
		"disk_size":   "disk-size",
		"mac_address": "mac-address",
		"rosetta":     "rosetta",
		"timing":      "timing",
	} {
		// Only explicitly set flags override the file
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(a.statusCommand())
	root.AddCommand(a.configCommand())
	root.AddCommand(a.versionCommand())

	return root
}

// installerArg requires exactly one positional argument.
func installerArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return &UsageError{
			Reason: fmt.Sprintf("expected 1 installer image argument, got %d", len(args)),
			Usage:  cmd.UsageString(),
		}
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, errors.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// execute runs the command line and maps the outcome to an exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintf(a.stdout, "Error: %s\n%s", usage.Reason, usage.Usage)
		return ExitUsage
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return ExitFailure
}

// Main runs vmlaunch with the given arguments and returns the exit code.
func Main(ctx context.Context, args []string) int {
	return newApp(os.Stdout, os.Stderr).execute(ctx, args)
}
