package vm

import (
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/tozd/go/errors"
)

func TestBundlePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "VMLaunch.bundle")
	b := NewBundle(dir)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"variable store", b.VariableStorePath(), filepath.Join(dir, "NVRAM")},
		{"disk", b.DiskPath(), filepath.Join(dir, "Disk.img")},
		{"machine identifier", b.MachineIdentifierPath(), filepath.Join(dir, "MachineIdentifier")},
		{"state", b.StatePath(), filepath.Join(dir, "state.json")},
		{"pid", b.PIDPath(), filepath.Join(dir, "vm.pid")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("path = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBundleCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "VMLaunch.bundle")
	b := NewBundle(dir)

	if b.Exists() {
		t.Fatal("bundle should not exist before Create")
	}
	if err := b.Create(); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !b.Exists() {
		t.Error("bundle should exist after Create")
	}

	// Creating again is not an error
	if err := b.Create(); err != nil {
		t.Errorf("second Create failed: %v", err)
	}
}

func TestBundleExistsRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VMLaunch.bundle")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if NewBundle(path).Exists() {
		t.Error("a regular file is not a bundle")
	}
}

func TestBundleCreateFailure(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(parent, nil, 0644); err != nil {
		t.Fatal(err)
	}

	err := NewBundle(filepath.Join(parent, "VMLaunch.bundle")).Create()
	if !errors.Is(err, ErrCannotCreateBundle) {
		t.Errorf("Create error = %v, want ErrCannotCreateBundle", err)
	}
}

func TestBundleLock(t *testing.T) {
	b := NewBundle(t.TempDir())

	if _, running := b.RunningPID(); running {
		t.Fatal("no process should hold a fresh bundle")
	}
	if err := b.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	pid, running := b.RunningPID()
	if !running || pid != os.Getpid() {
		t.Errorf("RunningPID = %d, %v; want %d, true", pid, running, os.Getpid())
	}

	// The owning process may lock again
	if err := b.Lock(); err != nil {
		t.Errorf("relock by owner failed: %v", err)
	}

	b.Unlock()
	if _, err := os.Stat(b.PIDPath()); !os.IsNotExist(err) {
		t.Error("PID file should be removed by Unlock")
	}
}

func TestBundleLockStalePID(t *testing.T) {
	b := NewBundle(t.TempDir())
	if err := os.WriteFile(b.PIDPath(), []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := b.Lock(); err != nil {
		t.Errorf("Lock should replace an unreadable PID file: %v", err)
	}
}
