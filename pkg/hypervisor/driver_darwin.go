//go:build darwin

package hypervisor

import (
	"context"
	"log/slog"
	"net"
	"runtime"
	"sync"

	"github.com/Code-Hex/vz/v3"
	"gitlab.com/tozd/go/errors"
)

// vzDriver implements Driver using macOS Virtualization.framework.
type vzDriver struct {
	mu      sync.Mutex
	cfg     *VMConfig
	vm      *vz.VirtualMachine
	vmCfg   *vz.VirtualMachineConfiguration
	state   driverState
	stopped chan error
}

type driverState int

const (
	stateNew driverState = iota
	stateValidated
	stateCreated
	stateStarting
)

// NewDriver creates a new vz-based driver for macOS.
func NewDriver() (Driver, error) {
	return &vzDriver{
		state:   stateNew,
		stopped: make(chan error, 1),
	}, nil
}

func (d *vzDriver) Info() Info {
	return Info{
		Name:    "vz",
		Version: "3",
		Arch:    runtime.GOARCH,
	}
}

func (d *vzDriver) Capabilities() Capabilities {
	return Capabilities{
		Rosetta:        runtime.GOARCH == "arm64",
		USBMassStorage: true,
		Networking:     true,
	}
}

type vzMachineIdentifier struct {
	id *vz.GenericMachineIdentifier
}

func (m *vzMachineIdentifier) DataRepresentation() []byte {
	return m.id.DataRepresentation()
}

type vzVariableStore struct {
	path  string
	store *vz.EFIVariableStore
}

func (s *vzVariableStore) Path() string {
	return s.path
}

func (d *vzDriver) NewMachineIdentifier() (MachineIdentifier, error) {
	id, err := vz.NewGenericMachineIdentifier()
	if err != nil {
		return nil, errors.Errorf("vzDriver: create machine identifier: %w", err)
	}
	return &vzMachineIdentifier{id: id}, nil
}

func (d *vzDriver) ParseMachineIdentifier(data []byte) (MachineIdentifier, error) {
	id, err := vz.NewGenericMachineIdentifierWithData(data)
	if err != nil {
		return nil, errors.Errorf("vzDriver: parse machine identifier: %w", err)
	}
	return &vzMachineIdentifier{id: id}, nil
}

func (d *vzDriver) CreateVariableStore(path string) (VariableStore, error) {
	store, err := vz.NewEFIVariableStore(path, vz.WithCreatingEFIVariableStore())
	if err != nil {
		return nil, errors.Errorf("vzDriver: create EFI variable store: %w", err)
	}
	return &vzVariableStore{path: path, store: store}, nil
}

func (d *vzDriver) OpenVariableStore(path string) (VariableStore, error) {
	store, err := vz.NewEFIVariableStore(path)
	if err != nil {
		return nil, errors.Errorf("vzDriver: open EFI variable store: %w", err)
	}
	return &vzVariableStore{path: path, store: store}, nil
}

func (d *vzDriver) Validate(ctx context.Context, cfg *VMConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateNew {
		return errors.New("vzDriver: invalid state for Validate")
	}

	if err := cfg.Validate(); err != nil {
		return errors.WrapWith(err, ErrInvalidConfiguration)
	}

	vmCfg, err := d.buildConfiguration(ctx, cfg)
	if err != nil {
		return errors.WrapWith(err, ErrInvalidConfiguration)
	}

	slog.DebugContext(ctx, "validating virtual machine configuration")
	ok, err := vmCfg.Validate()
	if err != nil {
		return errors.WrapWith(err, ErrInvalidConfiguration)
	}
	if !ok {
		return errors.WithStack(ErrInvalidConfiguration)
	}

	d.cfg = cfg
	d.vmCfg = vmCfg
	d.state = stateValidated
	return nil
}

func (d *vzDriver) buildConfiguration(ctx context.Context, cfg *VMConfig) (*vz.VirtualMachineConfiguration, error) {
	store, ok := cfg.VariableStore.(*vzVariableStore)
	if !ok {
		return nil, errors.Errorf("vzDriver: unexpected variable store type %T", cfg.VariableStore)
	}
	identifier, ok := cfg.MachineIdentifier.(*vzMachineIdentifier)
	if !ok {
		return nil, errors.Errorf("vzDriver: unexpected machine identifier type %T", cfg.MachineIdentifier)
	}

	bootLoader, err := vz.NewEFIBootLoader(vz.WithEFIVariableStore(store.store))
	if err != nil {
		return nil, errors.Errorf("vzDriver: create boot loader: %w", err)
	}

	vmCfg, err := vz.NewVirtualMachineConfiguration(bootLoader, cfg.CPUs, cfg.MemoryBytes)
	if err != nil {
		return nil, errors.Errorf("vzDriver: create VM config: %w", err)
	}

	platform, err := vz.NewGenericPlatformConfiguration(vz.WithGenericMachineIdentifier(identifier.id))
	if err != nil {
		return nil, errors.Errorf("vzDriver: create platform config: %w", err)
	}
	vmCfg.SetPlatformVirtualMachineConfiguration(platform)

	storage := make([]vz.StorageDeviceConfiguration, 0, len(cfg.Storage))
	for _, dev := range cfg.Storage {
		storageCfg, err := toVzStorageDevice(dev)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "adding storage device", "kind", dev.Kind, "path", dev.Path, "read_only", dev.ReadOnly)
		storage = append(storage, storageCfg)
	}
	vmCfg.SetStorageDevicesVirtualMachineConfiguration(storage)

	if cfg.Console != nil {
		attachment, err := vz.NewFileHandleSerialPortAttachment(cfg.Console.In, cfg.Console.Out)
		if err != nil {
			return nil, errors.Errorf("vzDriver: create serial attachment: %w", err)
		}
		serialCfg, err := vz.NewVirtioConsoleDeviceSerialPortConfiguration(attachment)
		if err != nil {
			return nil, errors.Errorf("vzDriver: create serial config: %w", err)
		}
		vmCfg.SetSerialPortsVirtualMachineConfiguration([]*vz.VirtioConsoleDeviceSerialPortConfiguration{
			serialCfg,
		})
	}

	if cfg.Network != nil {
		netCfg, err := toVzNetworkDevice(cfg.Network)
		if err != nil {
			return nil, err
		}
		vmCfg.SetNetworkDevicesVirtualMachineConfiguration([]*vz.VirtioNetworkDeviceConfiguration{netCfg})
	}

	if cfg.Entropy {
		entropy, err := vz.NewVirtioEntropyDeviceConfiguration()
		if err != nil {
			return nil, errors.Errorf("vzDriver: create entropy device: %w", err)
		}
		vmCfg.SetEntropyDevicesVirtualMachineConfiguration([]*vz.VirtioEntropyDeviceConfiguration{entropy})
	}

	if cfg.MemoryBalloon {
		balloon, err := vz.NewVirtioTraditionalMemoryBalloonDeviceConfiguration()
		if err != nil {
			return nil, errors.Errorf("vzDriver: create memory balloon: %w", err)
		}
		vmCfg.SetMemoryBalloonDevicesVirtualMachineConfiguration([]vz.MemoryBalloonDeviceConfiguration{balloon})
	}

	if cfg.Rosetta != nil {
		share, err := toVzRosettaShare(ctx, cfg.Rosetta)
		if err != nil {
			return nil, err
		}
		vmCfg.SetDirectorySharingDevicesVirtualMachineConfiguration([]vz.DirectorySharingDeviceConfiguration{share})
	}

	return vmCfg, nil
}

func toVzStorageDevice(dev StorageDevice) (vz.StorageDeviceConfiguration, error) {
	attachment, err := vz.NewDiskImageStorageDeviceAttachment(dev.Path, dev.ReadOnly)
	if err != nil {
		return nil, errors.Errorf("vzDriver: create disk attachment %s: %w", dev.Path, err)
	}

	switch dev.Kind {
	case StorageUSBMassStorage:
		usb, err := vz.NewUSBMassStorageDeviceConfiguration(attachment)
		if err != nil {
			return nil, errors.Errorf("vzDriver: create usb storage device: %w", err)
		}
		return usb, nil
	case StorageVirtioBlock:
		block, err := vz.NewVirtioBlockDeviceConfiguration(attachment)
		if err != nil {
			return nil, errors.Errorf("vzDriver: create block device: %w", err)
		}
		return block, nil
	default:
		return nil, errors.Errorf("vzDriver: unexpected storage kind %s", dev.Kind)
	}
}

func toVzNetworkDevice(dev *NetworkDevice) (*vz.VirtioNetworkDeviceConfiguration, error) {
	natAttachment, err := vz.NewNATNetworkDeviceAttachment()
	if err != nil {
		return nil, errors.Errorf("vzDriver: create NAT attachment: %w", err)
	}

	netConfig, err := vz.NewVirtioNetworkDeviceConfiguration(natAttachment)
	if err != nil {
		return nil, errors.Errorf("vzDriver: create network config: %w", err)
	}

	var macAddr *vz.MACAddress
	if dev.MACAddress != "" {
		hwAddr, err := net.ParseMAC(dev.MACAddress)
		if err != nil {
			return nil, errors.Errorf("vzDriver: parse MAC address: %w", err)
		}
		macAddr, err = vz.NewMACAddress(hwAddr)
		if err != nil {
			return nil, errors.Errorf("vzDriver: create MAC address: %w", err)
		}
	} else {
		macAddr, err = vz.NewRandomLocallyAdministeredMACAddress()
		if err != nil {
			return nil, errors.Errorf("vzDriver: generate random MAC: %w", err)
		}
	}
	netConfig.SetMACAddress(macAddr)

	return netConfig, nil
}

func (d *vzDriver) Create(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateValidated {
		return errors.WithStack(ErrNotValidated)
	}

	vm, err := vz.NewVirtualMachine(d.vmCfg)
	if err != nil {
		return errors.Errorf("vzDriver: create VM: %w", err)
	}

	d.vm = vm
	d.state = stateCreated

	go d.observe(ctx, vm)

	return nil
}

// observe forwards the terminal guest state to the stopped channel.
func (d *vzDriver) observe(ctx context.Context, vm *vz.VirtualMachine) {
	for state := range vm.StateChangedNotify() {
		slog.DebugContext(ctx, "vm state changed", "state", state)
		switch state {
		case vz.VirtualMachineStateStopped:
			d.stopped <- nil
			return
		case vz.VirtualMachineStateError:
			d.stopped <- errors.WithStack(ErrGuestError)
			return
		}
	}
}

func (d *vzDriver) Start(ctx context.Context) <-chan error {
	result := make(chan error, 1)

	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case stateCreated:
	case stateStarting:
		result <- errors.WithStack(ErrAlreadyStarted)
		return result
	default:
		result <- errors.WithStack(ErrNotCreated)
		return result
	}
	d.state = stateStarting

	vm := d.vm
	go func() {
		if err := vm.Start(); err != nil {
			result <- errors.WrapWith(err, ErrStartFailed)
			return
		}
		result <- nil
	}()

	return result
}

func (d *vzDriver) Stopped() <-chan error {
	return d.stopped
}
