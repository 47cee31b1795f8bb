package tensor

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation.
// It carries an untyped byte buffer plus runtime shape and type information.
type RawTensor struct {
	data   []byte   // Raw buffer, row-major
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides (row-major)
	dtype  DataType // Runtime type information
	device Device   // Compute device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements := shape.NumElements()
	byteSize := numElements * dtype.Size()

	return &RawTensor{
		data:   make([]byte, byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// FromFloat32 creates a float32 RawTensor from a slice.
// The slice is copied into the tensor's memory.
func FromFloat32(data []float32, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, Float32, device)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat32(), data)
	return raw, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone creates a deep copy of the RawTensor.
func (r *RawTensor) Clone() *RawTensor {
	clone := &RawTensor{
		data:   append([]byte(nil), r.data...),
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
	return clone
}

// rawTensorWire is the gob wire representation of a RawTensor.
type rawTensorWire struct {
	DType string
	Shape []int
	Data  []byte
}

// GobEncode implements gob.GobEncoder.
//
// Weight lists cross the process boundary through a generic object
// serialization channel, so RawTensor must be self-describing on the wire.
func (r *RawTensor) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	wire := rawTensorWire{
		DType: r.dtype.String(),
		Shape: []int(r.shape),
		Data:  r.data,
	}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("failed to encode tensor: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (r *RawTensor) GobDecode(data []byte) error {
	var wire rawTensorWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return fmt.Errorf("failed to decode tensor: %w", err)
	}

	dtype, ok := parseDataType(wire.DType)
	if !ok {
		return fmt.Errorf("unknown dtype %q", wire.DType)
	}

	shape := Shape(wire.Shape)
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("invalid shape: %w", err)
	}
	if len(wire.Data) != shape.NumElements()*dtype.Size() {
		return fmt.Errorf("tensor data size %d does not match shape %v (%s)", len(wire.Data), shape, dtype)
	}

	r.data = wire.Data
	r.shape = shape.Clone()
	r.stride = shape.ComputeStrides()
	r.dtype = dtype
	r.device = CPU
	return nil
}

// parseDataType converts a string name back to a DataType.
func parseDataType(s string) (DataType, bool) {
	switch s {
	case "float32":
		return Float32, true
	case "float64":
		return Float64, true
	default:
		return 0, false
	}
}
