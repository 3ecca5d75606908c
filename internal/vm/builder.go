package vm

import (
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

// Defaults for the guest resources. They are fixed choices, not derived
// from host capacity.
const (
	DefaultCPUs        uint   = 2
	DefaultMemoryBytes uint64 = 2 * 1024 * 1024 * 1024
	RosettaTag                = "rosetta"
)

// BuildInput is everything the configuration is assembled from.
type BuildInput struct {
	InstallerPath string
	Identity      *Identity
	DiskPath      string
	CPUs          uint
	MemoryBytes   uint64
	Console       *hypervisor.Console
	MACAddress    string
	Rosetta       bool
}

// BuildConfig assembles the VM configuration for one run. The installer is
// always the first storage device so firmware finds it before the main disk.
func BuildConfig(in BuildInput) (*hypervisor.VMConfig, error) {
	f, err := os.Open(in.InstallerPath)
	if err != nil {
		return nil, errors.WrapWith(err, ErrInstallerUnavailable)
	}
	f.Close()

	if in.Identity == nil {
		return nil, errors.New("build config: identity is required")
	}

	cpus := in.CPUs
	if cpus == 0 {
		cpus = DefaultCPUs
	}
	memory := in.MemoryBytes
	if memory == 0 {
		memory = DefaultMemoryBytes
	}

	cfg := &hypervisor.VMConfig{
		CPUs:              cpus,
		MemoryBytes:       memory,
		VariableStore:     in.Identity.VariableStore,
		MachineIdentifier: in.Identity.MachineIdentifier,
		Storage: []hypervisor.StorageDevice{
			{Kind: hypervisor.StorageUSBMassStorage, Path: in.InstallerPath, ReadOnly: true},
			{Kind: hypervisor.StorageVirtioBlock, Path: in.DiskPath, ReadOnly: false},
		},
		Console: in.Console,
		Network: &hypervisor.NetworkDevice{
			Mode:       "nat",
			MACAddress: in.MACAddress,
		},
		Entropy:       true,
		MemoryBalloon: true,
	}

	if in.Rosetta {
		cfg.Rosetta = &hypervisor.RosettaShare{Tag: RosettaTag, Install: true}
	}

	return cfg, nil
}
