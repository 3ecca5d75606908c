package vm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// PersistentState holds VM state that survives restarts.
type PersistentState struct {
	// CreatedAt is when the bundle was initialized.
	CreatedAt time.Time `json:"created_at,omitempty"`

	// LastBoot is when the VM was last started.
	LastBoot time.Time `json:"last_boot,omitempty"`

	// LastShutdown is when the VM was last stopped.
	LastShutdown time.Time `json:"last_shutdown,omitempty"`

	// BootCount is the number of times the VM has booted.
	BootCount int `json:"boot_count"`

	// DiskSizeBytes is the capacity the main disk was created with.
	DiskSizeBytes int64 `json:"disk_size_bytes"`

	// CleanShutdown indicates if the last shutdown was clean.
	CleanShutdown bool `json:"clean_shutdown"`
}

// StateFile manages persistent state storage.
type StateFile struct {
	path string
}

// NewStateFile creates a state file manager for the file at path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Load reads the state from disk.
func (s *StateFile) Load() (*PersistentState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &PersistentState{}, nil
	}
	if err != nil {
		return nil, errors.Errorf("read state file: %w", err)
	}

	var state PersistentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Errorf("parse state file: %w", err)
	}

	return &state, nil
}

// Save writes the state to disk.
func (s *StateFile) Save(state *PersistentState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Errorf("marshal state: %w", err)
	}

	return writeFileAtomic(s.path, data, 0644)
}

// RecordCreated stamps the bundle creation time and disk capacity.
func (s *StateFile) RecordCreated(diskSizeBytes int64) error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state.CreatedAt = time.Now()
	state.DiskSizeBytes = diskSizeBytes

	return s.Save(state)
}

// RecordBoot updates state for a new boot.
func (s *StateFile) RecordBoot() error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state.LastBoot = time.Now()
	state.BootCount++
	state.CleanShutdown = false

	return s.Save(state)
}

// RecordShutdown updates state for a shutdown.
func (s *StateFile) RecordShutdown(clean bool) error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state.LastShutdown = time.Now()
	state.CleanShutdown = clean

	return s.Save(state)
}

// Path returns the state file path.
func (s *StateFile) Path() string {
	return s.path
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("rename %s: %w", path, err)
	}
	return nil
}
