package hypervisor

import (
	"context"
	"log/slog"

	"github.com/Code-Hex/vz/v3"
	"gitlab.com/tozd/go/errors"
)

var (
	checkRosettaAvailability = vz.LinuxRosettaDirectoryShareAvailability
	doInstallRosetta         = vz.LinuxRosettaDirectoryShareInstallRosetta
)

func ensureRosetta(ctx context.Context, share *RosettaShare) error {
	switch checkRosettaAvailability() {
	case vz.LinuxRosettaAvailabilityNotSupported:
		return errors.WithStack(ErrRosettaNotSupported)
	case vz.LinuxRosettaAvailabilityNotInstalled:
		if !share.Install {
			return errors.WithStack(ErrRosettaNotAvailable)
		}
		slog.InfoContext(ctx, "installing rosetta")
		if err := doInstallRosetta(); err != nil {
			return errors.WrapWith(err, ErrRosettaNotAvailable)
		}
		slog.InfoContext(ctx, "rosetta installed")
	case vz.LinuxRosettaAvailabilityInstalled:
		// ready
	default:
		return errors.WithStack(ErrRosettaNotAvailable)
	}
	return nil
}

func toVzRosettaShare(ctx context.Context, share *RosettaShare) (vz.DirectorySharingDeviceConfiguration, error) {
	if err := ensureRosetta(ctx, share); err != nil {
		return nil, err
	}

	rosettaShare, err := vz.NewLinuxRosettaDirectoryShare()
	if err != nil {
		return nil, errors.WrapWith(err, ErrRosettaNotAvailable)
	}
	fsConfig, err := vz.NewVirtioFileSystemDeviceConfiguration(share.Tag)
	if err != nil {
		return nil, errors.Errorf("vzDriver: create fs config %s: %w", share.Tag, err)
	}
	fsConfig.SetDirectoryShare(rosettaShare)

	return fsConfig, nil
}
