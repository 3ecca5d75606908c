package vm

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/javanstorm/vmlaunch/internal/testutil"
)

func newTestIdentity(t *testing.T) (*Bundle, *testutil.FakeDriver, *IdentityManager) {
	t.Helper()
	b := NewBundle(t.TempDir())
	d := testutil.NewFakeDriver()
	return b, d, NewIdentityManager(b, d)
}

func TestCreateMachineIdentifierPersists(t *testing.T) {
	b, _, m := newTestIdentity(t)

	id, err := m.CreateMachineIdentifier()
	require.NoError(t, err)

	data, err := os.ReadFile(b.MachineIdentifierPath())
	require.NoError(t, err)
	assert.Equal(t, id.DataRepresentation(), data)
}

func TestLoadMachineIdentifierStable(t *testing.T) {
	_, _, m := newTestIdentity(t)

	created, err := m.CreateMachineIdentifier()
	require.NoError(t, err)

	for range 3 {
		loaded, err := m.LoadMachineIdentifier()
		require.NoError(t, err)
		assert.True(t, bytes.Equal(created.DataRepresentation(), loaded.DataRepresentation()))
	}
}

func TestLoadMachineIdentifierErrors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		write   bool
		want    error
	}{
		{"missing", nil, false, ErrMissingIdentifierData},
		{"empty", []byte{}, true, ErrMalformedIdentifier},
		{"garbage", []byte("not an identifier"), true, ErrMalformedIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, m := newTestIdentity(t)
			if tt.write {
				require.NoError(t, os.WriteFile(b.MachineIdentifierPath(), tt.content, 0644))
			}

			_, err := m.LoadMachineIdentifier()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateMachineIdentifierGenerationFailure(t *testing.T) {
	b, d, m := newTestIdentity(t)
	d.NewIdentifierErr = errors.New("no entropy")

	_, err := m.CreateMachineIdentifier()
	assert.ErrorIs(t, err, ErrCannotPersistIdentifier)

	_, statErr := os.Stat(b.MachineIdentifierPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestCreateMachineIdentifierWriteFailure(t *testing.T) {
	_, d, _ := newTestIdentity(t)
	m := NewIdentityManager(NewBundle(t.TempDir()+"/missing"), d)

	_, err := m.CreateMachineIdentifier()
	assert.ErrorIs(t, err, ErrCannotPersistIdentifier)
}

func TestCreateVariableStore(t *testing.T) {
	b, _, m := newTestIdentity(t)

	store, err := m.CreateVariableStore()
	require.NoError(t, err)
	assert.Equal(t, b.VariableStorePath(), store.Path())
	assert.FileExists(t, b.VariableStorePath())
}

func TestCreateVariableStoreExisting(t *testing.T) {
	b, d, m := newTestIdentity(t)
	require.NoError(t, os.WriteFile(b.VariableStorePath(), []byte("old"), 0644))

	_, err := m.CreateVariableStore()
	assert.ErrorIs(t, err, ErrCannotCreateStore)
	assert.Zero(t, d.CreateStoreCalls)

	data, err := os.ReadFile(b.VariableStorePath())
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestCreateVariableStoreFailure(t *testing.T) {
	_, d, m := newTestIdentity(t)
	d.CreateStoreErr = errors.New("denied")

	_, err := m.CreateVariableStore()
	assert.ErrorIs(t, err, ErrCannotCreateStore)
}

func TestLoadVariableStore(t *testing.T) {
	b, _, m := newTestIdentity(t)

	_, err := m.LoadVariableStore()
	assert.ErrorIs(t, err, ErrCannotFindStore)

	_, err = m.CreateVariableStore()
	require.NoError(t, err)

	store, err := m.LoadVariableStore()
	require.NoError(t, err)
	assert.Equal(t, b.VariableStorePath(), store.Path())
}

func TestResolveFirstRunThenLoad(t *testing.T) {
	_, d, m := newTestIdentity(t)

	created, err := m.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, 1, d.NewIdentifierCalls)
	assert.Equal(t, 1, d.CreateStoreCalls)

	loaded, err := m.Resolve(false)
	require.NoError(t, err)
	assert.Equal(t, 1, d.NewIdentifierCalls, "subsequent run must not generate a new identifier")
	assert.Equal(t, 1, d.OpenStoreCalls)
	assert.Equal(t, created.MachineIdentifier.DataRepresentation(), loaded.MachineIdentifier.DataRepresentation())
	assert.Equal(t, created.VariableStore.Path(), loaded.VariableStore.Path())
}

func TestResolveSubsequentRunMissingFiles(t *testing.T) {
	b, _, m := newTestIdentity(t)

	_, err := m.Resolve(false)
	assert.ErrorIs(t, err, ErrCannotFindStore)

	_, err = m.CreateVariableStore()
	require.NoError(t, err)

	_, err = m.Resolve(false)
	assert.ErrorIs(t, err, ErrMissingIdentifierData)
	assert.NoFileExists(t, b.MachineIdentifierPath(), "loading must never regenerate the identifier")
}
