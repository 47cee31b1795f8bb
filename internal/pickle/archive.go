package pickle

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrArchiveEntryEscapes is returned when an archive entry would extract
// outside the staging root.
var ErrArchiveEntryEscapes = errors.New("archive entry escapes staging root")

// archiveTree encodes every file under root into an in-memory tar blob,
// keyed by root-relative path.
//
// Each file is removed right after it is read, so the tree and the blob
// never coexist in full.
func archiveTree(fsys afero.Fs, root string) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := entryPath(root, path)
		if err != nil {
			return err
		}

		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}

		header := &tar.Header{
			Name:     rel,
			Mode:     0o644,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write archive header for %s: %w", rel, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("failed to archive %s: %w", rel, err)
		}

		return fsys.Remove(path)
	})
	if err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// extractTree writes every archive entry to its path under root, creating
// parent directories as needed.
func extractTree(fsys afero.Fs, root string, blob []byte) error {
	tr := tar.NewReader(bytes.NewReader(blob))
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		dest := filepath.Join(root, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(dest, filepath.Clean(root)+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrArchiveEntryEscapes, header.Name)
		}

		if err := fsys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", header.Name, err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("failed to read archive entry %s: %w", header.Name, err)
		}
		if err := afero.WriteFile(fsys, dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", header.Name, err)
		}
	}
	return nil
}

// removeTree deletes every file under root, leaving directories for the
// staging cleanup to collect.
func removeTree(fsys afero.Fs, root string) error {
	return afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		return fsys.Remove(path)
	})
}

// entryPath converts a walk-reported path into a root-relative,
// slash-separated archive path.
//
// Storage media differ in how they report walked entries: some return paths
// rooted at the walk root, others full paths. Both forms are normalized
// here, on the pack and unpack sides alike, so archive entries and
// extraction targets stay consistent.
func entryPath(root, path string) (string, error) {
	cleanRoot := filepath.Clean(root)
	cleanPath := filepath.Clean(path)

	if prefix := cleanRoot + string(filepath.Separator); strings.HasPrefix(cleanPath, prefix) {
		return filepath.ToSlash(strings.TrimPrefix(cleanPath, prefix)), nil
	}
	if !filepath.IsAbs(cleanPath) {
		return filepath.ToSlash(cleanPath), nil
	}

	rel, err := filepath.Rel(cleanRoot, cleanPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside staging root %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}
