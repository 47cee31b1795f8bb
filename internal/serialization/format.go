package serialization

import (
	"time"

	"github.com/marrow-ml/marrow/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "MRRW"
	FormatVersion = 1

	// MaxHeaderSize bounds the JSON header to keep a corrupted size field
	// from triggering a huge allocation.
	MaxHeaderSize = 16 << 20
)

// marrowVersion is the library version written into file headers.
const marrowVersion = "0.1.0"

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Header represents the JSON header in a .marrow file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .marrow format
	MarrowVersion string            `json:"marrow_version"` // Version of Marrow that created this file
	ModelType     string            `json:"model_type"`     // Type of model (e.g., "Sequential", "Optimizer")
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor metadata, in data order
	Metadata      map[string]string `json:"metadata"`       // Custom metadata
}

// TensorMeta describes a tensor in the .marrow file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "layers.0.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// Serialized is a class-identifier-plus-config mapping produced by an
// entity's own serialize capability. It is sufficient to reconstruct an
// equivalent entity via the matching deserialize capability.
type Serialized struct {
	ClassName string         `json:"class_name"`
	Config    map[string]any `json:"config"`
}

// dtypeToString converts tensor.DataType to its string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	default:
		return "unknown"
	}
}

// stringToDtype converts a string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}
