package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"

	"github.com/javanstorm/vmlaunch/internal/config"
	"github.com/javanstorm/vmlaunch/internal/logging"
	"github.com/javanstorm/vmlaunch/internal/timing"
	"github.com/javanstorm/vmlaunch/internal/vm"
)

// ErrInvalidConfig is returned when configuration validation reports a fatal issue.
var ErrInvalidConfig = errors.Base("cli: invalid configuration")

func (a *app) runLaunch(cmd *cobra.Command, args []string) error {
	timer := timing.New(a.stderr)

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Timing {
		timer = nil
	}

	ctx, err := a.setupLogging(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	ctx = logging.With(ctx, "run", xid.New().String())
	timer.Mark(ctx, timing.PhaseConfigLoad)

	driver, err := a.newDriver()
	if err != nil {
		return errors.Errorf("create driver: %w", err)
	}
	info := driver.Info()
	logging.Ctx(ctx).DebugContext(ctx, "hypervisor driver", "name", info.Name, "version", info.Version, "arch", info.Arch)

	problems := config.ValidateConfig(cfg, driver.Capabilities())
	if len(problems) > 0 {
		fmt.Fprint(a.stderr, config.FormatValidationErrors(problems))
	}
	if config.HasFatal(problems) {
		return errors.WithStack(ErrInvalidConfig)
	}

	// Both parse cleanly once validation passed
	memory, _ := cfg.MemoryBytes()
	diskSize, _ := cfg.DiskSizeBytes()

	mgr, err := vm.NewManager(vm.ManagerConfig{
		BundleDir:     cfg.BundleDir,
		InstallerPath: args[0],
		CPUs:          cfg.CPUs,
		MemoryBytes:   memory,
		DiskSizeBytes: diskSize,
		MACAddress:    cfg.MACAddress,
		Rosetta:       cfg.Rosetta,
		Terminal:      a.terminal,
		Driver:        driver,
		Out:           a.stdout,
		Timer:         timer,
	})
	if err != nil {
		return errors.Errorf("create manager: %w", err)
	}
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mgr.Run(ctx)
}

func (a *app) setupLogging(ctx context.Context, cfg *config.Config) (context.Context, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	color := false
	if f, ok := a.stderr.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return logging.Setup(ctx, a.stderr, level, color), nil
}
