//go:build darwin || linux

package terminal

import (
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sys/unix"
)

func setRaw(fd int) (func(), error) {
	old, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, errors.Errorf("terminal: read attributes: %w", err)
	}

	raw := *old
	raw.Iflag &^= unix.ICRNL
	raw.Lflag &^= unix.ICANON | unix.ECHO
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return nil, errors.Errorf("terminal: set attributes: %w", err)
	}

	return func() {
		_ = unix.IoctlSetTermios(fd, ioctlWriteTermios, old)
	}, nil
}
