package pickle

import (
	"archive/tar"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}
}

func TestArchiveExtractRoundTrip(t *testing.T) {
	files := map[string]string{
		"config.json":       `{"layers": []}`,
		"model.weights":     "binary-ish",
		"sub/nested.txt":    "deep",
		"optimizer.weights": "slots",
	}

	src := afero.NewMemMapFs()
	writeTree(t, src, "/ram/src", files)

	blob, err := archiveTree(src, "/ram/src")
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	dst := afero.NewMemMapFs()
	require.NoError(t, dst.MkdirAll("/ram/dst", 0o755))
	require.NoError(t, extractTree(dst, "/ram/dst", blob))

	for name, content := range files {
		data, err := afero.ReadFile(dst, filepath.Join("/ram/dst", name))
		require.NoError(t, err, "missing %s", name)
		assert.Equal(t, content, string(data))
	}
}

func TestArchiveTreeConsumesSource(t *testing.T) {
	src := afero.NewMemMapFs()
	writeTree(t, src, "/ram/src", map[string]string{"a": "1", "b": "2"})

	_, err := archiveTree(src, "/ram/src")
	require.NoError(t, err)

	// Files are deleted as they are read.
	for _, name := range []string{"/ram/src/a", "/ram/src/b"} {
		exists, err := afero.Exists(src, name)
		require.NoError(t, err)
		assert.False(t, exists, "%s should be consumed", name)
	}
}

func TestArchiveRoundTripOnOsFs(t *testing.T) {
	// The staging medium can also be the real filesystem.
	fsys := afero.NewOsFs()
	root := t.TempDir()
	writeTree(t, fsys, root, map[string]string{"config.json": "{}", "w/x.bin": "xx"})

	blob, err := archiveTree(fsys, root)
	require.NoError(t, err)

	dstRoot := t.TempDir()
	require.NoError(t, extractTree(fsys, dstRoot, blob))

	data, err := afero.ReadFile(fsys, filepath.Join(dstRoot, "w/x.bin"))
	require.NoError(t, err)
	assert.Equal(t, "xx", string(data))
}

func TestExtractTreeRejectsEscapingEntries(t *testing.T) {
	// A hand-built archive whose entry path climbs out of the root.
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../escape",
		Mode:     0o644,
		Size:     4,
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	dst := afero.NewMemMapFs()
	err = extractTree(dst, "/ram/dst", buf.Bytes())
	assert.ErrorIs(t, err, ErrArchiveEntryEscapes)
}

func TestRemoveTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, "/ram/x", map[string]string{"a": "1", "d/b": "2"})

	require.NoError(t, removeTree(fsys, "/ram/x"))

	for _, name := range []string{"/ram/x/a", "/ram/x/d/b"} {
		exists, err := afero.Exists(fsys, name)
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

func TestEntryPath(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{"full path under root", "/ram/abc", "/ram/abc/config.json", "config.json"},
		{"nested full path", "/ram/abc", "/ram/abc/sub/x.bin", "sub/x.bin"},
		{"already relative", "/ram/abc", "sub/x.bin", "sub/x.bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entryPath(tt.root, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := entryPath("/ram/abc", "/ram/other/x")
	assert.Error(t, err)
}
