package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/internal/logging"
	"github.com/javanstorm/vmlaunch/internal/timing"
	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

// State represents the VM lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateStarting         // Start requested, waiting for the result
	StateRunning          // Guest is running
	StateStopped          // Guest shut itself down
	StateFailed           // Terminal error
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Notices printed on the console around the guest session.
const (
	LaunchNotice   = "Launching VM..."
	ShutdownNotice = "The guest shut down. Exiting."
)

// Terminal is the host terminal the guest serial console is wired to.
type Terminal interface {
	Input() *os.File
	Output() *os.File
	SetRaw() (restore func(), err error)
}

// ManagerConfig holds configuration for the VM manager.
type ManagerConfig struct {
	// BundleDir is the persistent VM bundle directory.
	BundleDir string

	// InstallerPath is the installer image attached read-only for this run.
	InstallerPath string

	// CPUs is the number of virtual CPUs.
	CPUs uint

	// MemoryBytes is the guest memory size.
	MemoryBytes uint64

	// DiskSizeBytes is the main disk capacity, used only when the bundle is created.
	DiskSizeBytes int64

	// MACAddress is optional custom MAC (empty = auto-generate).
	MACAddress string

	// Rosetta adds a Rosetta share for x86_64 binaries in the guest.
	Rosetta bool

	// Terminal is wired to the guest serial console. Nil leaves the guest without one.
	Terminal Terminal

	// Driver is the virtualization service. Nil selects the platform driver.
	Driver hypervisor.Driver

	// Out receives the launch and shutdown notices. Defaults to os.Stdout.
	Out io.Writer

	// Timer marks startup phases and reports them once the VM runs. Nil disables timing.
	Timer *timing.Timer
}

// Manager orchestrates a single VM lifecycle from bundle bootstrap to guest
// shutdown.
type Manager struct {
	cfg       ManagerConfig
	bundle    *Bundle
	images    *ImageManager
	identity  *IdentityManager
	stateFile *StateFile
	driver    hypervisor.Driver

	mu       sync.RWMutex
	state    State
	lastErr  error
	prepared bool
	firstRun bool
	vmCfg    *hypervisor.VMConfig
	restore  func()
	locked   bool
}

// NewManager creates a new VM manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.BundleDir == "" {
		return nil, errors.New("manager: bundle directory is required")
	}
	if cfg.InstallerPath == "" {
		return nil, errors.New("manager: installer path is required")
	}

	driver := cfg.Driver
	if driver == nil {
		var err error
		driver, err = hypervisor.NewDriver()
		if err != nil {
			return nil, errors.Errorf("create hypervisor driver: %w", err)
		}
	}

	// Apply defaults
	if cfg.CPUs == 0 {
		cfg.CPUs = DefaultCPUs
	}
	if cfg.MemoryBytes == 0 {
		cfg.MemoryBytes = DefaultMemoryBytes
	}
	if cfg.DiskSizeBytes == 0 {
		cfg.DiskSizeBytes = DefaultDiskSizeBytes
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	bundle := NewBundle(cfg.BundleDir)

	return &Manager{
		cfg:       cfg,
		bundle:    bundle,
		images:    NewImageManager(bundle.DiskPath()),
		identity:  NewIdentityManager(bundle, driver),
		stateFile: NewStateFile(bundle.StatePath()),
		driver:    driver,
		state:     StateNotStarted,
	}, nil
}

// Prepare bootstraps or loads the bundle, builds the configuration and
// validates it with the virtualization service. Nothing is started.
func (m *Manager) Prepare(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNotStarted || m.prepared {
		return errors.Errorf("%w: cannot prepare in state %s", ErrInvalidState, m.state)
	}

	if err := m.prepare(ctx); err != nil {
		m.fail(err)
		return err
	}

	m.prepared = true
	return nil
}

func (m *Manager) prepare(ctx context.Context) error {
	log := logging.Ctx(ctx)

	// Inspect the installer before touching the bundle so a bad path leaves no state behind.
	installer, err := InspectInstaller(ctx, m.cfg.InstallerPath)
	if err != nil {
		return err
	}

	m.firstRun = !m.bundle.Exists()
	if m.firstRun {
		log.InfoContext(ctx, "creating VM bundle", "dir", m.bundle.Dir())
		if err := m.bundle.Create(); err != nil {
			return err
		}
		log.InfoContext(ctx, "creating main disk image",
			"path", m.images.DiskPath(),
			"size", humanize.IBytes(uint64(m.cfg.DiskSizeBytes)),
		)
		if err := m.images.CreateMainDisk(m.cfg.DiskSizeBytes); err != nil {
			return err
		}
		if err := m.stateFile.RecordCreated(m.cfg.DiskSizeBytes); err != nil {
			log.WarnContext(ctx, "could not record bundle creation", "error", err)
		}
	} else {
		log.InfoContext(ctx, "using existing VM bundle", "dir", m.bundle.Dir())
	}

	if err := m.bundle.Lock(); err != nil {
		return err
	}
	m.locked = true

	identity, err := m.identity.Resolve(m.firstRun)
	if err != nil {
		return err
	}
	m.cfg.Timer.Mark(ctx, timing.PhaseBundle)

	var console *hypervisor.Console
	if m.cfg.Terminal != nil {
		restore, err := m.cfg.Terminal.SetRaw()
		if err != nil {
			return errors.Errorf("configure console: %w", err)
		}
		m.restore = restore
		console = &hypervisor.Console{
			In:  m.cfg.Terminal.Input(),
			Out: m.cfg.Terminal.Output(),
		}
	}

	vmCfg, err := BuildConfig(BuildInput{
		InstallerPath: installer.Path,
		Identity:      identity,
		DiskPath:      m.images.DiskPath(),
		CPUs:          m.cfg.CPUs,
		MemoryBytes:   m.cfg.MemoryBytes,
		Console:       console,
		MACAddress:    m.cfg.MACAddress,
		Rosetta:       m.cfg.Rosetta,
	})
	if err != nil {
		return err
	}

	if err := m.driver.Validate(ctx, vmCfg); err != nil {
		return errors.Errorf("validate config: %w", err)
	}

	m.vmCfg = vmCfg
	m.cfg.Timer.Mark(ctx, timing.PhaseVMPrepare)
	log.DebugContext(ctx, "configuration validated",
		"cpus", vmCfg.CPUs,
		"memory", humanize.IBytes(vmCfg.MemoryBytes),
		"first_run", m.firstRun,
	)
	return nil
}

// Start asks the virtualization service to boot the VM and blocks until the
// start result arrives. A failed start is terminal.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateNotStarted || !m.prepared {
		state := m.state
		m.mu.Unlock()
		return errors.Errorf("%w: cannot start in state %s", ErrInvalidState, state)
	}

	if err := m.driver.Create(ctx); err != nil {
		err = errors.Errorf("create VM: %w", err)
		m.fail(err)
		m.mu.Unlock()
		return err
	}

	m.state = StateStarting
	started := m.driver.Start(ctx)
	m.mu.Unlock()

	var err error
	select {
	case err = <-started:
	case <-ctx.Done():
		err = ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		err = errors.Errorf("start VM: %w", err)
		m.fail(err)
		return err
	}

	m.state = StateRunning
	m.cfg.Timer.Mark(ctx, timing.PhaseVMStart)
	m.cfg.Timer.Report()
	fmt.Fprintln(m.cfg.Out, LaunchNotice)

	// Boot history is non-critical
	if err := m.stateFile.RecordBoot(); err != nil {
		logging.Ctx(ctx).WarnContext(ctx, "could not record boot", "error", err)
	}

	return nil
}

// Wait blocks until the guest stops. A guest that shut itself down is a
// normal end and returns nil.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()

	if state != StateRunning {
		return errors.Errorf("%w: cannot wait in state %s", ErrInvalidState, state)
	}

	var err error
	select {
	case err = <-m.driver.Stopped():
	case <-ctx.Done():
		return ctx.Err()
	}

	if recordErr := m.stateFile.RecordShutdown(err == nil); recordErr != nil {
		logging.Ctx(ctx).WarnContext(ctx, "could not record shutdown", "error", recordErr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		err = errors.Errorf("VM exited with error: %w", err)
		m.fail(err)
		return err
	}

	m.state = StateStopped
	fmt.Fprintln(m.cfg.Out, ShutdownNotice)
	return nil
}

// Run drives the whole lifecycle: Prepare, Start, then Wait.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Prepare(ctx); err != nil {
		return err
	}
	if err := m.Start(ctx); err != nil {
		return err
	}
	return m.Wait(ctx)
}

// Close restores the terminal and releases the bundle lock.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.restore != nil {
		m.restore()
		m.restore = nil
	}
	if m.locked {
		m.bundle.Unlock()
		m.locked = false
	}
}

func (m *Manager) fail(err error) {
	m.state = StateFailed
	m.lastErr = err
}

// State returns the current VM state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the error that moved the manager to StateFailed.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// FirstRun reports whether Prepare created the bundle.
func (m *Manager) FirstRun() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.firstRun
}

// Config returns the validated VM configuration, nil before Prepare succeeds.
func (m *Manager) Config() *hypervisor.VMConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vmCfg
}

// Bundle returns the bundle the manager works on.
func (m *Manager) Bundle() *Bundle {
	return m.bundle
}

// DriverInfo returns hypervisor driver information.
func (m *Manager) DriverInfo() hypervisor.Info {
	return m.driver.Info()
}

// PersistentState returns the bundle's boot history.
func (m *Manager) PersistentState() (*PersistentState, error) {
	return m.stateFile.Load()
}
