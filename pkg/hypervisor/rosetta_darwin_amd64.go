package hypervisor

import (
	"context"

	"github.com/Code-Hex/vz/v3"
	"gitlab.com/tozd/go/errors"
)

func toVzRosettaShare(_ context.Context, _ *RosettaShare) (vz.DirectorySharingDeviceConfiguration, error) {
	return nil, errors.WithStack(ErrRosettaNotSupported)
}
