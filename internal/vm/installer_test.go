package vm

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kdomanski/iso9660"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/vmlaunch/internal/testutil"
)

func TestInspectInstallerRaw(t *testing.T) {
	path := testutil.CreateInstaller(t)

	inst, err := InspectInstaller(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, inst.Path)
	assert.Equal(t, int64(64*1024), inst.Size)
	assert.Empty(t, inst.Label)
}

func TestInspectInstallerISOLabel(t *testing.T) {
	w, err := iso9660.NewWriter()
	require.NoError(t, err)
	defer w.Cleanup()

	require.NoError(t, w.AddFile(bytes.NewReader([]byte("hello")), "README.TXT"))

	path := filepath.Join(t.TempDir(), "debian.iso")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteTo(f, "DEBIAN"))
	require.NoError(t, f.Close())

	inst, err := InspectInstaller(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "DEBIAN", inst.Label)
}

func TestInspectInstallerErrors(t *testing.T) {
	dir := t.TempDir()

	qcow := filepath.Join(dir, "disk.qcow2")
	header := make([]byte, 4096)
	copy(header, []byte{'Q', 'F', 'I', 0xfb, 0, 0, 0, 3})
	require.NoError(t, os.WriteFile(qcow, header, 0644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "missing.iso"), ErrInstallerUnavailable},
		{"directory", dir, ErrInstallerUnavailable},
		{"qcow2", qcow, ErrUnsupportedInstaller},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InspectInstaller(context.Background(), tt.path)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInspectInstallerUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	path := testutil.CreateInstaller(t)
	require.NoError(t, os.Chmod(path, 0))
	t.Cleanup(func() { _ = os.Chmod(path, 0644) })

	_, err := InspectInstaller(context.Background(), path)
	assert.ErrorIs(t, err, ErrInstallerUnavailable)
}
