package vm

import (
	"os"

	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultDiskSizeBytes is the default main disk capacity (64GiB sparse).
	DefaultDiskSizeBytes int64 = 64 * 1024 * 1024 * 1024
)

// ImageManager handles main disk image creation.
type ImageManager struct {
	path string
}

// NewImageManager creates an image manager for the disk image at path.
func NewImageManager(path string) *ImageManager {
	return &ImageManager{path: path}
}

// DiskPath returns the path to the disk image.
func (m *ImageManager) DiskPath() string {
	return m.path
}

// CreateMainDisk creates the disk image and extends it to sizeBytes without
// allocating blocks. An existing file is never touched: the image is only
// created once, on first run.
func (m *ImageManager) CreateMainDisk(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return errors.Errorf("%w: capacity must be positive, got %d", ErrCannotSizeDiskImage, sizeBytes)
	}

	created, err := os.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WrapWith(err, ErrCannotCreateDiskImage)
	}
	if err := created.Close(); err != nil {
		return errors.WrapWith(err, ErrCannotCreateDiskImage)
	}

	f, err := os.OpenFile(m.path, os.O_WRONLY, 0)
	if err != nil {
		return errors.WrapWith(err, ErrCannotOpenDiskImage)
	}
	defer f.Close()

	// Truncate creates a sparse file on Linux/macOS
	if err := f.Truncate(sizeBytes); err != nil {
		os.Remove(m.path)
		return errors.WrapWith(err, ErrCannotSizeDiskImage)
	}

	return nil
}
