// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/marrow-ml/marrow/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32() and AsFloat64()
//   - Deep copies via Clone()
//   - gob encoding, so it can cross process boundaries as plain data
//
// Most users should use the high-level Tensor[T, B] type instead.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()  // Type-safe access
type RawTensor = tensor.RawTensor

// NewRaw creates a zero-filled raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromFloat32 creates a raw tensor from float32 data.
func FromFloat32(data []float32, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape, device)
}
