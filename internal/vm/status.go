package vm

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// FileStatus describes one bundle file.
type FileStatus struct {
	Name    string
	Path    string
	Present bool
	Size    int64
}

// BundleStatus is a read-only report on a bundle.
type BundleStatus struct {
	Dir    string
	Exists bool
	Files  []FileStatus

	DiskLogicalBytes   int64
	DiskAllocatedBytes int64

	// IdentifierFingerprint is a short hash of the machine identifier.
	IdentifierFingerprint string

	History *PersistentState

	Running    bool
	RunningPID int
}

// InspectBundle reports on the bundle at dir without modifying it.
func InspectBundle(dir string) (*BundleStatus, error) {
	b := NewBundle(dir)
	status := &BundleStatus{Dir: dir, Exists: b.Exists()}
	if !status.Exists {
		return status, nil
	}

	for _, f := range []struct{ name, path string }{
		{VariableStoreFile, b.VariableStorePath()},
		{MainDiskFile, b.DiskPath()},
		{MachineIdentifierFile, b.MachineIdentifierPath()},
	} {
		fs := FileStatus{Name: f.name, Path: f.path}
		if info, err := os.Stat(f.path); err == nil {
			fs.Present = true
			fs.Size = info.Size()
			if f.name == MainDiskFile {
				status.DiskLogicalBytes = info.Size()
				status.DiskAllocatedBytes = allocatedBytes(info)
			}
		}
		status.Files = append(status.Files, fs)
	}

	if data, err := os.ReadFile(b.MachineIdentifierPath()); err == nil && len(data) > 0 {
		sum := sha256.Sum256(data)
		status.IdentifierFingerprint = hex.EncodeToString(sum[:8])
	}

	history, err := NewStateFile(b.StatePath()).Load()
	if err != nil {
		return nil, err
	}
	status.History = history

	status.RunningPID, status.Running = b.RunningPID()

	return status, nil
}
