package pickle

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// staging is an ephemeral, uniquely-named storage root. It exists only for
// the duration of one pack or unpack call.
type staging struct {
	fsys afero.Fs
	root string
}

// newStaging acquires a fresh staging location.
//
// The default medium is an in-memory filesystem with a random unique root,
// which avoids disk I/O entirely. On Windows the in-memory medium is
// swapped for an OS temporary directory, mirroring the platform split of
// the RAM-backed storage this design descends from; either way the medium
// stays hidden behind afero.Fs.
func newStaging() (*staging, error) {
	if runtime.GOOS == "windows" {
		fsys := afero.NewOsFs()
		root, err := afero.TempDir(fsys, "", "marrow-staging-")
		if err != nil {
			return nil, fmt.Errorf("failed to create staging directory: %w", err)
		}
		return &staging{fsys: fsys, root: root}, nil
	}

	fsys := afero.NewMemMapFs()
	root := filepath.Join("/ram", uuid.NewString())
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &staging{fsys: fsys, root: root}, nil
}

// Cleanup removes the staging root and everything under it.
//
// Idempotent and best-effort: a root that was already removed is skipped
// silently, and removal failures never propagate past the scope.
func (s *staging) Cleanup() {
	exists, err := afero.DirExists(s.fsys, s.root)
	if err != nil || !exists {
		return
	}
	_ = s.fsys.RemoveAll(s.root)
}

// withStaging runs fn with a fresh staging location and guarantees cleanup
// on exit, whether fn succeeds or fails.
func withStaging(fn func(fsys afero.Fs, root string) error) error {
	s, err := newStaging()
	if err != nil {
		return err
	}
	defer s.Cleanup()
	return fn(s.fsys, s.root)
}
