// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor data types.
// Supported types: float32, float64.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a generic type-safe tensor.
//
// T is the data type (float32, float64).
// B is the backend implementation.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Element-wise addition
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Creation functions

// New wraps a raw tensor in a typed tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor filled with random values from standard normal distribution N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}
