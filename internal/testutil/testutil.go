// Package testutil provides common test helpers for vmlaunch tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CreateTestDisk creates a sparse disk file at the given path with the specified size.
// The file is created as a sparse file, so it doesn't actually allocate all the space.
func CreateTestDisk(t *testing.T, path string, sizeMB int64) {
	t.Helper()

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test disk at %s: %v", path, err)
	}
	defer f.Close()

	// Create sparse file by truncating to desired size
	sizeBytes := sizeMB * 1024 * 1024
	if err := f.Truncate(sizeBytes); err != nil {
		t.Fatalf("failed to truncate test disk to %d bytes: %v", sizeBytes, err)
	}
}

// CreateInstaller writes a small raw installer image into a temporary
// directory and returns its path.
func CreateInstaller(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "installer.iso")
	data := make([]byte, 64*1024)
	copy(data, "vmlaunch test installer")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write installer image: %v", err)
	}
	return path
}

// BundleDir returns a bundle path inside a fresh temporary directory. The
// bundle itself does not exist yet.
func BundleDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "VMLaunch.bundle")
}
