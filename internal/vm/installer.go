package vm

import (
	"context"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kdomanski/iso9660"
	"github.com/lima-vm/go-qcow2reader"
	"github.com/lima-vm/go-qcow2reader/image/raw"
	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/internal/logging"
)

// Installer describes the installer medium attached for one run.
type Installer struct {
	Path  string
	Size  int64
	Label string // ISO 9660 volume label, empty for other raw images
}

// InspectInstaller checks that the installer image is a readable raw image
// the host can attach read-only.
func InspectInstaller(ctx context.Context, path string) (*Installer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapWith(err, ErrInstallerUnavailable)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.WrapWith(err, ErrInstallerUnavailable)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Errorf("%w: %s is not a regular file", ErrInstallerUnavailable, path)
	}

	img, err := qcow2reader.Open(f)
	if err != nil {
		return nil, errors.Errorf("%w: detect format of %s: %s", ErrUnsupportedInstaller, path, err)
	}
	if t := img.Type(); t != raw.Type {
		return nil, errors.Errorf("%w: %s is %q, expected %q", ErrUnsupportedInstaller, path, t, raw.Type)
	}

	inst := &Installer{Path: path, Size: info.Size()}

	if iso, err := iso9660.OpenImage(f); err == nil {
		if label, err := iso.Label(); err == nil {
			inst.Label = strings.TrimSpace(label)
		}
	}

	logging.Ctx(ctx).DebugContext(ctx, "installer inspected",
		"path", path,
		"size", humanize.IBytes(uint64(inst.Size)),
		"label", inst.Label,
	)

	return inst, nil
}
