// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/marrow-ml/marrow/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go implementation
//
// Example:
//
//	import (
//	    "github.com/marrow-ml/marrow/tensor"
//	    "github.com/marrow-ml/marrow/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend = tensor.Backend
