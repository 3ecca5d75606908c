package hypervisor

import "gitlab.com/tozd/go/errors"

// Configuration errors
var (
	ErrInvalidCPUCount          = errors.Base("hypervisor: CPU count must be at least 1")
	ErrInsufficientMemory       = errors.Base("hypervisor: memory must be at least 128MiB")
	ErrMissingVariableStore     = errors.Base("hypervisor: EFI variable store is required")
	ErrMissingMachineIdentifier = errors.Base("hypervisor: machine identifier is required")
	ErrNoStorage                = errors.Base("hypervisor: at least one storage device is required")
	ErrMissingDiskPath          = errors.Base("hypervisor: storage device path is required")
	ErrInvalidNetworkMode       = errors.Base("hypervisor: network mode must be 'nat'")
	ErrMissingRosettaTag        = errors.Base("hypervisor: rosetta share needs a mount tag")
	ErrInvalidConfiguration     = errors.Base("hypervisor: invalid configuration")
)

// Runtime errors
var (
	ErrNotValidated   = errors.Base("hypervisor: configuration not validated")
	ErrNotCreated     = errors.Base("hypervisor: VM not created")
	ErrAlreadyStarted = errors.Base("hypervisor: VM start already requested")
	ErrStartFailed    = errors.Base("hypervisor: VM failed to start")
	ErrGuestError     = errors.Base("hypervisor: VM entered error state")
)

// Platform errors
var (
	ErrUnsupportedPlatform = errors.Base("hypervisor: platform not supported")
	ErrRosettaNotSupported = errors.Base("hypervisor: rosetta is not supported on this host")
	ErrRosettaNotAvailable = errors.Base("hypervisor: rosetta is not available")
)
