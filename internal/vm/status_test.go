package vm

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectBundleMissing(t *testing.T) {
	cfg, _, _ := createTestConfig(t)

	status, err := InspectBundle(cfg.BundleDir)
	require.NoError(t, err)
	assert.False(t, status.Exists)
	assert.Empty(t, status.Files)

	_, statErr := os.Stat(cfg.BundleDir)
	assert.True(t, os.IsNotExist(statErr), "inspecting must not create the bundle")
}

func TestInspectBundleAfterRun(t *testing.T) {
	cfg, _, _ := createTestConfig(t)

	m, err := NewManager(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Run(context.Background()))
	m.Close()

	status, err := InspectBundle(cfg.BundleDir)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	require.Len(t, status.Files, 3)
	for _, f := range status.Files {
		assert.True(t, f.Present, f.Name)
	}

	assert.Equal(t, DefaultDiskSizeBytes, status.DiskLogicalBytes)
	assert.Less(t, status.DiskAllocatedBytes, status.DiskLogicalBytes, "disk should be sparse")
	assert.Len(t, status.IdentifierFingerprint, 16)
	assert.Equal(t, 1, status.History.BootCount)
	assert.False(t, status.Running)
}
