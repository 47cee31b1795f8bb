package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/marrow-ml/marrow/internal/tensor"
)

// ReadWeights reads a state dictionary from a .marrow file on the given
// filesystem.
//
// Returns the file header and a map from tensor names to tensors.
func ReadWeights(fsys afero.Fs, path string) (*Header, map[string]*tensor.RawTensor, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header, err := readHeader(file)
	if err != nil {
		return nil, nil, err
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	var currentOffset int64
	for _, meta := range header.Tensors {
		if meta.Offset != currentOffset {
			return nil, nil, fmt.Errorf("tensor %q: offset %d does not match data position %d: %w",
				meta.Name, meta.Offset, currentOffset, ErrOutOfBounds)
		}

		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("tensor %q: unknown dtype %q", meta.Name, meta.DType)
		}

		shape := tensor.Shape(meta.Shape)
		raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("tensor %q: size %d does not match shape %v (%s)",
				meta.Name, meta.Size, shape, dtype)
		}

		if _, err := io.ReadFull(file, raw.Data()); err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w: %w", meta.Name, ErrTruncated, err)
		}

		stateDict[meta.Name] = raw
		currentOffset += meta.Size
	}

	return header, stateDict, nil
}

// readHeader reads and validates the fixed prefix and JSON header.
func readHeader(r io.Reader) (*Header, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	return &header, nil
}
