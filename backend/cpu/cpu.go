// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/marrow-ml/marrow/internal/backend/cpu"
	"github.com/marrow-ml/marrow/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of all tensor operations.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/marrow-ml/marrow/backend/cpu"
//	    "github.com/marrow-ml/marrow/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}
