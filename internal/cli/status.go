package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmlaunch/internal/vm"
)

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show VM bundle status",
		Long:  `Display the VM bundle files, disk usage, machine identity, boot history and hypervisor support.`,
		Args:  cobra.NoArgs,
		RunE:  a.runStatus,
	}
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	status, err := vm.InspectBundle(cfg.BundleDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bundle: %s\n", status.Dir)
	if !status.Exists {
		fmt.Fprintln(out, "  not created yet (the first launch creates it)")
	} else {
		printBundleFiles(out, status)
	}

	fmt.Fprintln(out)
	if driver, err := a.newDriver(); err != nil {
		fmt.Fprintf(out, "Hypervisor: unavailable (%v)\n", err)
	} else {
		info := driver.Info()
		caps := driver.Capabilities()
		fmt.Fprintf(out, "Hypervisor: %s %s (%s)\n", info.Name, info.Version, info.Arch)
		fmt.Fprintf(out, "  Rosetta:          %s\n", supported(caps.Rosetta))
		fmt.Fprintf(out, "  USB mass storage: %s\n", supported(caps.USBMassStorage))
		fmt.Fprintf(out, "  NAT networking:   %s\n", supported(caps.Networking))
	}

	return nil
}

func printBundleFiles(out io.Writer, status *vm.BundleStatus) {
	for _, f := range status.Files {
		if !f.Present {
			fmt.Fprintf(out, "  %-18s missing\n", f.Name)
			continue
		}
		fmt.Fprintf(out, "  %-18s %s\n", f.Name, humanize.IBytes(uint64(f.Size)))
	}

	if status.DiskLogicalBytes > 0 {
		fmt.Fprintf(out, "Disk: %s logical, %s allocated\n",
			humanize.IBytes(uint64(status.DiskLogicalBytes)),
			humanize.IBytes(uint64(status.DiskAllocatedBytes)))
	}
	if status.IdentifierFingerprint != "" {
		fmt.Fprintf(out, "Machine identifier: %s\n", status.IdentifierFingerprint)
	}

	h := status.History
	fmt.Fprintf(out, "Boots: %d\n", h.BootCount)
	if !h.CreatedAt.IsZero() {
		fmt.Fprintf(out, "  Created:       %s\n", humanize.Time(h.CreatedAt))
	}
	if !h.LastBoot.IsZero() {
		fmt.Fprintf(out, "  Last boot:     %s\n", humanize.Time(h.LastBoot))
	}
	if !h.LastShutdown.IsZero() {
		clean := "clean"
		if !h.CleanShutdown {
			clean = "unclean"
		}
		fmt.Fprintf(out, "  Last shutdown: %s (%s)\n", humanize.Time(h.LastShutdown), clean)
	}

	if status.Running {
		fmt.Fprintf(out, "State: running (PID %d)\n", status.RunningPID)
	} else {
		fmt.Fprintln(out, "State: stopped")
	}
}

func supported(ok bool) string {
	if ok {
		return "supported"
	}
	return "not supported"
}
