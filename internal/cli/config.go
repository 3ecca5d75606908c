package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/vmlaunch/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration a launch would use after merging defaults,
the config file and command-line flags (--cpus, --memory, --rosetta and the
other launch flags are accepted here too), followed by any validation
findings for this host.`,
		Args: cobra.NoArgs,
		RunE: a.runConfig,
	}
}

func (a *app) runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	file := a.v.ConfigFileUsed()
	if file == "" {
		file = "(none, using defaults)"
	}

	fmt.Fprintf(out, "Config file: %s\n", file)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  bundle_dir:  %s\n", cfg.BundleDir)
	fmt.Fprintf(out, "  cpus:        %d\n", cfg.CPUs)
	fmt.Fprintf(out, "  memory:      %s\n", cfg.Memory)
	fmt.Fprintf(out, "  disk_size:   %s\n", cfg.DiskSize)
	fmt.Fprintf(out, "  mac_address: %s\n", formatOptional(cfg.MACAddress, "random"))
	fmt.Fprintf(out, "  rosetta:     %t\n", cfg.Rosetta)
	fmt.Fprintf(out, "  log_level:   %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "  timing:      %t\n", cfg.Timing)

	driver, err := a.newDriver()
	if err != nil {
		fmt.Fprintf(out, "\nHypervisor unavailable: %v\n", err)
		return nil
	}
	if problems := config.ValidateConfig(cfg, driver.Capabilities()); len(problems) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, config.FormatValidationErrors(problems))
	}
	return nil
}

func formatOptional(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
