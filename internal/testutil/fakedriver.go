package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

const fakeIdentifierPrefix = "fake-machine-id-"

// ErrFakeMalformed is returned by FakeDriver.ParseMachineIdentifier for
// data it did not generate.
var ErrFakeMalformed = errors.Base("fake: malformed machine identifier")

// FakeDriver is an in-memory hypervisor.Driver. Error fields make the
// matching call fail; call counters record what the code under test did.
type FakeDriver struct {
	mu sync.Mutex

	Caps hypervisor.Capabilities

	NewIdentifierErr error
	CreateStoreErr   error
	OpenStoreErr     error
	ValidateErr      error
	CreateErr        error
	StartErr         error

	// AutoStop delivers StopErr on Stopped right after a successful start.
	AutoStop bool
	StopErr  error

	NewIdentifierCalls int
	ParseCalls         int
	CreateStoreCalls   int
	OpenStoreCalls     int
	ValidateCalls      int
	CreateCalls        int
	StartCalls         int

	// Config is the last configuration passed to Validate.
	Config *hypervisor.VMConfig

	nextID  int
	created bool
	stopped chan error
}

// NewFakeDriver returns a FakeDriver with every capability enabled.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		Caps: hypervisor.Capabilities{
			Rosetta:        true,
			USBMassStorage: true,
			Networking:     true,
		},
		stopped: make(chan error, 1),
	}
}

type fakeIdentifier struct {
	data []byte
}

func (f *fakeIdentifier) DataRepresentation() []byte {
	return bytes.Clone(f.data)
}

type fakeStore struct {
	path string
}

func (f *fakeStore) Path() string {
	return f.path
}

func (d *FakeDriver) Info() hypervisor.Info {
	return hypervisor.Info{Name: "fake", Version: "0", Arch: "test"}
}

func (d *FakeDriver) Capabilities() hypervisor.Capabilities {
	return d.Caps
}

func (d *FakeDriver) NewMachineIdentifier() (hypervisor.MachineIdentifier, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.NewIdentifierCalls++
	if d.NewIdentifierErr != nil {
		return nil, d.NewIdentifierErr
	}
	d.nextID++
	return &fakeIdentifier{data: []byte(fmt.Sprintf("%s%04d", fakeIdentifierPrefix, d.nextID))}, nil
}

func (d *FakeDriver) ParseMachineIdentifier(data []byte) (hypervisor.MachineIdentifier, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ParseCalls++
	if !bytes.HasPrefix(data, []byte(fakeIdentifierPrefix)) {
		return nil, errors.WithStack(ErrFakeMalformed)
	}
	return &fakeIdentifier{data: bytes.Clone(data)}, nil
}

// CreateVariableStore writes a placeholder file at path the way the real
// store is created on disk.
func (d *FakeDriver) CreateVariableStore(path string) (hypervisor.VariableStore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.CreateStoreCalls++
	if d.CreateStoreErr != nil {
		return nil, d.CreateStoreErr
	}
	if err := os.WriteFile(path, []byte("NVRAM"), 0644); err != nil {
		return nil, errors.WithStack(err)
	}
	return &fakeStore{path: path}, nil
}

func (d *FakeDriver) OpenVariableStore(path string) (hypervisor.VariableStore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.OpenStoreCalls++
	if d.OpenStoreErr != nil {
		return nil, d.OpenStoreErr
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WithStack(err)
	}
	return &fakeStore{path: path}, nil
}

func (d *FakeDriver) Validate(ctx context.Context, cfg *hypervisor.VMConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ValidateCalls++
	d.Config = cfg
	if d.ValidateErr != nil {
		return errors.WrapWith(d.ValidateErr, hypervisor.ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return errors.WrapWith(err, hypervisor.ErrInvalidConfiguration)
	}
	return nil
}

func (d *FakeDriver) Create(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.CreateCalls++
	if d.ValidateCalls == 0 {
		return errors.WithStack(hypervisor.ErrNotValidated)
	}
	if d.CreateErr != nil {
		return d.CreateErr
	}
	d.created = true
	return nil
}

func (d *FakeDriver) Start(ctx context.Context) <-chan error {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make(chan error, 1)
	d.StartCalls++
	switch {
	case !d.created:
		result <- errors.WithStack(hypervisor.ErrNotCreated)
	case d.StartCalls > 1:
		result <- errors.WithStack(hypervisor.ErrAlreadyStarted)
	case d.StartErr != nil:
		result <- errors.WrapWith(d.StartErr, hypervisor.ErrStartFailed)
	default:
		result <- nil
		if d.AutoStop {
			d.stopped <- d.StopErr
		}
	}
	return result
}

func (d *FakeDriver) Stopped() <-chan error {
	return d.stopped
}

// Stop simulates the guest stopping. A nil err is a guest-initiated shutdown.
func (d *FakeDriver) Stop(err error) {
	d.stopped <- err
}
