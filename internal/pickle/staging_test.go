package pickle

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStagingUniqueRoots(t *testing.T) {
	a, err := newStaging()
	require.NoError(t, err)
	defer a.Cleanup()

	b, err := newStaging()
	require.NoError(t, err)
	defer b.Cleanup()

	assert.NotEqual(t, a.root, b.root)

	existsA, err := afero.DirExists(a.fsys, a.root)
	require.NoError(t, err)
	assert.True(t, existsA)
}

func TestCleanupIsIdempotent(t *testing.T) {
	s, err := newStaging()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(s.fsys, s.root+"/file", []byte("data"), 0o644))

	s.Cleanup()

	exists, err := afero.DirExists(s.fsys, s.root)
	require.NoError(t, err)
	assert.False(t, exists)

	// Second cleanup must not panic or error.
	s.Cleanup()
}

func TestWithStagingCleansUpOnSuccess(t *testing.T) {
	var capturedFs afero.Fs
	var capturedRoot string

	err := withStaging(func(fsys afero.Fs, root string) error {
		capturedFs = fsys
		capturedRoot = root
		return afero.WriteFile(fsys, root+"/payload", []byte("x"), 0o644)
	})
	require.NoError(t, err)

	exists, err := afero.DirExists(capturedFs, capturedRoot)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithStagingCleansUpOnError(t *testing.T) {
	boom := errors.New("boom")

	var capturedFs afero.Fs
	var capturedRoot string

	err := withStaging(func(fsys afero.Fs, root string) error {
		capturedFs = fsys
		capturedRoot = root
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := afero.DirExists(capturedFs, capturedRoot)
	require.NoError(t, err)
	assert.False(t, exists)
}
