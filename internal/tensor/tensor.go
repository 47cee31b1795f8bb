package tensor

import "fmt"

// Tensor is a generic tensor with type T and backend B.
// It provides type-safe operations over multi-dimensional arrays.
//
// Type Parameters:
//   - T: Data type (must satisfy DType constraint)
//   - B: Computation backend (must implement Backend interface)
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
//	result := t.Add(t) // Type-safe addition
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a Tensor from a RawTensor and backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{
		raw:     raw,
		backend: b,
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)

	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations for low-level operations.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns a typed slice view of the tensor's data.
// The slice directly accesses the underlying memory (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor[T, B]) Data() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	default:
		panic("unsupported type")
	}
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T, B]) At(indices ...int) T {
	if len(indices) != len(t.Shape()) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.Shape()), len(indices)))
	}

	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape()[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.Shape()[i]))
		}
		offset += idx * strides[i]
	}

	return t.Data()[offset]
}

// Add performs element-wise addition.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// MatMul performs 2-D matrix multiplication.
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(scalar float32) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T, B](t.raw.Clone(), t.backend)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}
