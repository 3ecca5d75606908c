package vm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"gitlab.com/tozd/go/errors"
)

// RunningPID returns the PID recorded in the bundle's lock file if that
// process is still alive.
func (b *Bundle) RunningPID() (int, bool) {
	data, err := os.ReadFile(b.PIDPath())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	return pid, true
}

// Lock records the current process as the bundle's user. It fails with
// ErrAlreadyRunning when another live process holds the bundle.
func (b *Bundle) Lock() error {
	if pid, running := b.RunningPID(); running && pid != os.Getpid() {
		return errors.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}
	if err := os.WriteFile(b.PIDPath(), []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return errors.Errorf("write PID file: %w", err)
	}
	return nil
}

// Unlock removes the lock file if it belongs to the current process.
func (b *Bundle) Unlock() {
	if pid, running := b.RunningPID(); running && pid != os.Getpid() {
		return
	}
	os.Remove(b.PIDPath())
}
