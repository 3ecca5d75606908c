package hypervisor

import (
	"os"

	"gitlab.com/tozd/go/errors"
)

// MinMemoryBytes is the smallest guest memory the driver accepts.
const MinMemoryBytes = 128 * 1024 * 1024

// StorageKind selects the bus a disk image is attached to.
type StorageKind int

const (
	// StorageUSBMassStorage attaches the image as a removable USB disk.
	StorageUSBMassStorage StorageKind = iota
	// StorageVirtioBlock attaches the image as a virtio block device.
	StorageVirtioBlock
)

func (k StorageKind) String() string {
	switch k {
	case StorageUSBMassStorage:
		return "usb-mass-storage"
	case StorageVirtioBlock:
		return "virtio-blk"
	default:
		return "unknown"
	}
}

// StorageDevice is one disk image attachment.
type StorageDevice struct {
	Kind     StorageKind
	Path     string
	ReadOnly bool
}

// Console wires the guest serial port to host file handles.
type Console struct {
	// In is read by the guest.
	In *os.File
	// Out is written by the guest.
	Out *os.File
}

// NetworkDevice configures the guest NIC.
type NetworkDevice struct {
	// Mode is the attachment mode. Only "nat" is supported.
	Mode string

	// MACAddress is an optional custom MAC address.
	// If empty, a random locally-administered MAC will be generated.
	MACAddress string
}

// RosettaShare exposes the host x86_64 translator to a Linux guest over virtio-fs.
type RosettaShare struct {
	// Tag is the virtio-fs mount tag seen by the guest.
	Tag string
	// Install asks the host to install Rosetta when it is missing.
	Install bool
}

// VMConfig holds VM configuration parameters.
type VMConfig struct {
	// CPUs is the number of virtual CPUs.
	CPUs uint

	// MemoryBytes is the guest memory size.
	MemoryBytes uint64

	// VariableStore is the EFI NVRAM referenced by the boot loader.
	VariableStore VariableStore

	// MachineIdentifier is the stable guest identity.
	MachineIdentifier MachineIdentifier

	// Storage lists disk attachments in the order firmware tries them.
	Storage []StorageDevice

	// Console is the serial console attachment (optional).
	Console *Console

	// Network is the NIC configuration (optional).
	Network *NetworkDevice

	// Entropy adds a virtio entropy source.
	Entropy bool

	// MemoryBalloon adds a traditional virtio memory balloon.
	MemoryBalloon bool

	// Rosetta adds a Rosetta directory share (optional).
	Rosetta *RosettaShare
}

// Validate performs basic validation of the configuration.
func (c *VMConfig) Validate() error {
	if c.CPUs < 1 {
		return errors.WithStack(ErrInvalidCPUCount)
	}
	if c.MemoryBytes < MinMemoryBytes {
		return errors.WithStack(ErrInsufficientMemory)
	}
	if c.VariableStore == nil {
		return errors.WithStack(ErrMissingVariableStore)
	}
	if c.MachineIdentifier == nil {
		return errors.WithStack(ErrMissingMachineIdentifier)
	}
	if len(c.Storage) == 0 {
		return errors.WithStack(ErrNoStorage)
	}
	for _, dev := range c.Storage {
		if dev.Path == "" {
			return errors.WithStack(ErrMissingDiskPath)
		}
	}
	if c.Network != nil {
		if c.Network.Mode == "" {
			c.Network.Mode = "nat"
		}
		if c.Network.Mode != "nat" {
			return errors.WithStack(ErrInvalidNetworkMode)
		}
	}
	if c.Rosetta != nil && c.Rosetta.Tag == "" {
		return errors.WithStack(ErrMissingRosettaTag)
	}
	return nil
}
