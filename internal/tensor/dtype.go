// Package tensor provides the core tensor types for the Marrow ML framework.
package tensor

// DType is a constraint for supported tensor data types.
type DType interface {
	~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported type")
	}
}
