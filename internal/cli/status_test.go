package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/vmlaunch/internal/testutil"
)

func TestStatusMissingBundle(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("status"))
	assert.Contains(t, e.stdout.String(), "not created yet")
	assert.Contains(t, e.stdout.String(), "Hypervisor: fake")
}

func TestStatusAfterLaunch(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, ExitOK, e.run(testutil.CreateInstaller(t)), e.stderr.String())
	e.stdout.Reset()

	require.Equal(t, ExitOK, e.run("status"))
	out := e.stdout.String()
	assert.Contains(t, out, "Disk.img")
	assert.Contains(t, out, "64 GiB logical")
	assert.Contains(t, out, "Machine identifier:")
	assert.Contains(t, out, "Boots: 1")
	assert.Contains(t, out, "(clean)")
	assert.Contains(t, out, "State: stopped")
}

func TestStatusCapabilities(t *testing.T) {
	e := newTestEnv(t)
	e.driver.Caps.Rosetta = false

	require.Equal(t, ExitOK, e.run("status"))
	out := e.stdout.String()
	assert.Contains(t, out, "Rosetta:          not supported")
	assert.Contains(t, out, "USB mass storage: supported")
	assert.Contains(t, out, "NAT networking:   supported")
}

func TestStatusRejectsArgs(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, ExitFailure, e.run("status", "extra"))
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("version"))
	assert.Contains(t, e.stdout.String(), "vmlaunch ")
	assert.Contains(t, e.stdout.String(), "Commit:")
}

func TestConfigCommand(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("config", "--log-level", "debug"))
	out := e.stdout.String()
	assert.Contains(t, out, "(none, using defaults)")
	assert.Contains(t, out, "bundle_dir:  "+e.bundle)
	assert.Contains(t, out, "memory:      2GiB")
	assert.Contains(t, out, "log_level:   debug")
	assert.Contains(t, out, "mac_address: random")
}

func TestConfigCommandLaunchFlags(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, ExitOK, e.run("config", "--cpus", "1", "--memory", "4GiB", "--rosetta"))
	out := e.stdout.String()
	assert.Contains(t, out, "cpus:        1")
	assert.Contains(t, out, "memory:      4GiB")
	assert.Contains(t, out, "rosetta:     true")
}
