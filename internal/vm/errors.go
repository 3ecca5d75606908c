package vm

import "gitlab.com/tozd/go/errors"

// Bootstrap errors
var (
	ErrCannotCreateBundle      = errors.Base("vm: cannot create VM bundle")
	ErrCannotCreateDiskImage   = errors.Base("vm: cannot create main disk image")
	ErrCannotOpenDiskImage     = errors.Base("vm: cannot open main disk image")
	ErrCannotSizeDiskImage     = errors.Base("vm: cannot size main disk image")
	ErrCannotPersistIdentifier = errors.Base("vm: cannot persist machine identifier")
	ErrMissingIdentifierData   = errors.Base("vm: cannot read machine identifier data")
	ErrMalformedIdentifier     = errors.Base("vm: cannot parse machine identifier")
	ErrCannotCreateStore       = errors.Base("vm: cannot create EFI variable store")
	ErrCannotFindStore         = errors.Base("vm: cannot find EFI variable store")
)

// Configuration errors
var (
	ErrInstallerUnavailable = errors.Base("vm: installer image is not readable")
	ErrUnsupportedInstaller = errors.Base("vm: installer image format is not supported")
)

// Runtime errors
var (
	ErrAlreadyRunning = errors.Base("vm: bundle is in use by another process")
	ErrInvalidState   = errors.Base("vm: invalid lifecycle state")
)
