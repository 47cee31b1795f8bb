// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Marrow ML framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Marrow. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - An untyped RawTensor for serialization and backend boundaries
//   - Device abstraction behind the Backend interface
//
// # Basic Usage
//
//	import (
//	    "github.com/marrow-ml/marrow/tensor"
//	    "github.com/marrow-ml/marrow/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	}
package tensor
