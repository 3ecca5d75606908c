// Package hypervisor provides the interface to the host virtualization service
// (macOS Virtualization.framework) that actually runs the guest.
package hypervisor

import (
	"context"
)

// Driver is the main interface for hypervisor operations.
// Platform-specific implementations satisfy this interface.
type Driver interface {
	Lifecycle
	Identity
	Info() Info
	// Capabilities returns what features the driver supports.
	Capabilities() Capabilities
}

// Capabilities describes driver feature support.
// Used for early validation before VM configuration.
type Capabilities struct {
	Rosetta        bool // x86_64 translation share for Linux guests
	USBMassStorage bool // installer media attached as USB disks
	Networking     bool // virtio-net with NAT
}

// Identity creates and restores the host-generated objects a guest keeps
// across runs.
type Identity interface {
	// NewMachineIdentifier generates a fresh, host-unique identifier.
	NewMachineIdentifier() (MachineIdentifier, error)

	// ParseMachineIdentifier restores an identifier from its serialized form.
	ParseMachineIdentifier(data []byte) (MachineIdentifier, error)

	// CreateVariableStore creates a new, empty EFI variable store at path.
	CreateVariableStore(path string) (VariableStore, error)

	// OpenVariableStore opens an existing EFI variable store at path.
	OpenVariableStore(path string) (VariableStore, error)
}

// MachineIdentifier is an opaque guest identity.
type MachineIdentifier interface {
	DataRepresentation() []byte
}

// VariableStore is an EFI NVRAM file owned by the host.
type VariableStore interface {
	Path() string
}

// Lifecycle defines VM lifecycle operations.
type Lifecycle interface {
	// Validate assembles the host-native configuration and checks it against
	// the host's own consistency rules. Failures wrap ErrInvalidConfiguration.
	Validate(ctx context.Context, cfg *VMConfig) error

	// Create instantiates the VM from the validated configuration and
	// registers the guest-stop observer.
	Create(ctx context.Context) error

	// Start requests the VM to boot and returns immediately. The returned
	// channel receives exactly one value: nil once the VM is running, or
	// the start failure.
	Start(ctx context.Context) <-chan error

	// Stopped receives exactly one value once the guest is gone: nil when
	// the guest shut itself down, an error when the VM entered an error state.
	Stopped() <-chan error
}

// Info contains driver metadata.
type Info struct {
	Name    string // "vz" or "unsupported"
	Version string // Driver version
	Arch    string // "arm64" or "amd64"
}
