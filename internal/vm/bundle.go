package vm

import (
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// Bundle file names.
const (
	VariableStoreFile     = "NVRAM"
	MainDiskFile          = "Disk.img"
	MachineIdentifierFile = "MachineIdentifier"
	StateFileName         = "state.json"
	PIDFileName           = "vm.pid"
)

// Bundle is the persistent directory holding all per-VM state.
type Bundle struct {
	dir string
}

// NewBundle returns a bundle rooted at dir. Nothing is touched on disk.
func NewBundle(dir string) *Bundle {
	return &Bundle{dir: dir}
}

// Dir returns the bundle directory.
func (b *Bundle) Dir() string {
	return b.dir
}

// Exists reports whether the bundle directory is present. This is the only
// first-run signal.
func (b *Bundle) Exists() bool {
	info, err := os.Stat(b.dir)
	return err == nil && info.IsDir()
}

// Create creates the bundle directory and its parents. A directory that is
// already present is not an error.
func (b *Bundle) Create() error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return errors.WrapWith(err, ErrCannotCreateBundle)
	}
	return nil
}

// VariableStorePath returns the path of the EFI variable store.
func (b *Bundle) VariableStorePath() string {
	return filepath.Join(b.dir, VariableStoreFile)
}

// DiskPath returns the path of the main disk image.
func (b *Bundle) DiskPath() string {
	return filepath.Join(b.dir, MainDiskFile)
}

// MachineIdentifierPath returns the path of the serialized machine identifier.
func (b *Bundle) MachineIdentifierPath() string {
	return filepath.Join(b.dir, MachineIdentifierFile)
}

// StatePath returns the path of the boot history file.
func (b *Bundle) StatePath() string {
	return filepath.Join(b.dir, StateFileName)
}

// PIDPath returns the path of the run lock file.
func (b *Bundle) PIDPath() string {
	return filepath.Join(b.dir, PIDFileName)
}
