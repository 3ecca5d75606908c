package vm

import (
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

// Identity is the guest identity pair resolved for one run.
type Identity struct {
	MachineIdentifier hypervisor.MachineIdentifier
	VariableStore     hypervisor.VariableStore
}

// IdentityManager creates or loads the machine identifier and EFI variable
// store kept in a bundle.
type IdentityManager struct {
	bundle *Bundle
	host   hypervisor.Identity
}

// NewIdentityManager creates an identity manager for bundle backed by host.
func NewIdentityManager(bundle *Bundle, host hypervisor.Identity) *IdentityManager {
	return &IdentityManager{bundle: bundle, host: host}
}

// Resolve creates both sub-resources on first run and loads both otherwise.
// The two always follow the same branch so an identifier is never paired
// with another machine's NVRAM.
func (m *IdentityManager) Resolve(firstRun bool) (*Identity, error) {
	if firstRun {
		store, err := m.CreateVariableStore()
		if err != nil {
			return nil, err
		}
		id, err := m.CreateMachineIdentifier()
		if err != nil {
			return nil, err
		}
		return &Identity{MachineIdentifier: id, VariableStore: store}, nil
	}

	store, err := m.LoadVariableStore()
	if err != nil {
		return nil, err
	}
	id, err := m.LoadMachineIdentifier()
	if err != nil {
		return nil, err
	}
	return &Identity{MachineIdentifier: id, VariableStore: store}, nil
}

// CreateMachineIdentifier generates a new identifier and makes it durable
// in the bundle before returning it.
func (m *IdentityManager) CreateMachineIdentifier() (hypervisor.MachineIdentifier, error) {
	id, err := m.host.NewMachineIdentifier()
	if err != nil {
		return nil, errors.WrapWith(err, ErrCannotPersistIdentifier)
	}

	if err := writeFileAtomic(m.bundle.MachineIdentifierPath(), id.DataRepresentation(), 0644); err != nil {
		return nil, errors.WrapWith(err, ErrCannotPersistIdentifier)
	}

	return id, nil
}

// LoadMachineIdentifier reads the identifier written on first run.
func (m *IdentityManager) LoadMachineIdentifier() (hypervisor.MachineIdentifier, error) {
	data, err := os.ReadFile(m.bundle.MachineIdentifierPath())
	if err != nil {
		return nil, errors.WrapWith(err, ErrMissingIdentifierData)
	}
	if len(data) == 0 {
		return nil, errors.Errorf("%w: %s is empty", ErrMalformedIdentifier, m.bundle.MachineIdentifierPath())
	}

	id, err := m.host.ParseMachineIdentifier(data)
	if err != nil {
		return nil, errors.WrapWith(err, ErrMalformedIdentifier)
	}

	return id, nil
}

// CreateVariableStore creates an empty EFI variable store. An existing file
// at the store path is an error.
func (m *IdentityManager) CreateVariableStore() (hypervisor.VariableStore, error) {
	path := m.bundle.VariableStorePath()
	if _, err := os.Lstat(path); err == nil {
		return nil, errors.Errorf("%w: %s already exists", ErrCannotCreateStore, path)
	}

	store, err := m.host.CreateVariableStore(path)
	if err != nil {
		return nil, errors.WrapWith(err, ErrCannotCreateStore)
	}

	return store, nil
}

// LoadVariableStore opens the EFI variable store created on first run.
func (m *IdentityManager) LoadVariableStore() (hypervisor.VariableStore, error) {
	path := m.bundle.VariableStorePath()
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WrapWith(err, ErrCannotFindStore)
	}

	store, err := m.host.OpenVariableStore(path)
	if err != nil {
		return nil, errors.WrapWith(err, ErrCannotFindStore)
	}

	return store, nil
}
