//go:build !darwin

package hypervisor

import "gitlab.com/tozd/go/errors"

// NewDriver returns an error on platforms without Virtualization.framework.
func NewDriver() (Driver, error) {
	return nil, errors.WithStack(ErrUnsupportedPlatform)
}
