package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/marrow-ml/marrow/internal/tensor"
)

// WriteWeights writes a state dictionary to a .marrow file on the given
// filesystem.
//
// The state dictionary is a map from tensor names to tensors. Tensors are
// written in sorted name order so the file contents are deterministic.
func WriteWeights(fsys afero.Fs, path string, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	file, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	// Calculate tensor offsets
	header := Header{
		FormatVersion: FormatVersion,
		MarrowVersion: marrowVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var currentOffset int64
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})
		currentOffset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	// Write magic bytes
	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}

	// Write version
	if err := binary.Write(file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	// Write header size
	if err := binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}

	// Write header JSON
	if _, err := file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write tensor data
	for _, name := range names {
		if _, err := file.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}

	return nil
}
