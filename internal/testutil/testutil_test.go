package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/pkg/hypervisor"
)

var _ hypervisor.Driver = (*FakeDriver)(nil)

func TestCreateTestDisk(t *testing.T) {
	tmpDir := t.TempDir()
	diskPath := tmpDir + "/test.raw"
	sizeMB := int64(10)

	CreateTestDisk(t, diskPath, sizeMB)

	// Verify file exists
	info, err := os.Stat(diskPath)
	if err != nil {
		t.Fatalf("disk file should exist: %v", err)
	}

	// Verify size (sparse file reports full size)
	expectedBytes := sizeMB * 1024 * 1024
	if info.Size() != expectedBytes {
		t.Errorf("disk size = %d, want %d", info.Size(), expectedBytes)
	}
}

func TestCreateInstaller(t *testing.T) {
	path := CreateInstaller(t)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.NotZero(t, info.Size())
}

func TestBundleDirDoesNotExist(t *testing.T) {
	dir := BundleDir(t)

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Dir(dir))
	assert.NoError(t, err)
}

func TestFakeDriverIdentifiers(t *testing.T) {
	d := NewFakeDriver()

	first, err := d.NewMachineIdentifier()
	require.NoError(t, err)
	second, err := d.NewMachineIdentifier()
	require.NoError(t, err)
	assert.NotEqual(t, first.DataRepresentation(), second.DataRepresentation())

	parsed, err := d.ParseMachineIdentifier(first.DataRepresentation())
	require.NoError(t, err)
	assert.Equal(t, first.DataRepresentation(), parsed.DataRepresentation())

	_, err = d.ParseMachineIdentifier([]byte("garbage"))
	assert.ErrorIs(t, err, ErrFakeMalformed)
}

func TestFakeDriverLifecycleOrder(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver()

	assert.ErrorIs(t, d.Create(ctx), hypervisor.ErrNotValidated)
	assert.ErrorIs(t, <-d.Start(ctx), hypervisor.ErrNotCreated)
}

func TestFakeDriverAutoStop(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver()
	d.AutoStop = true
	d.ValidateCalls = 1

	require.NoError(t, d.Create(ctx))
	require.NoError(t, <-d.Start(ctx))
	assert.NoError(t, <-d.Stopped())
}

func TestFakeDriverStartAfterFailedCreate(t *testing.T) {
	ctx := context.Background()
	d := NewFakeDriver()
	d.ValidateCalls = 1
	d.CreateErr = errors.New("out of memory")

	assert.Error(t, d.Create(ctx))
	assert.ErrorIs(t, <-d.Start(ctx), hypervisor.ErrNotCreated)
}
