// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks for the Marrow ML framework.
//
// # Overview
//
// This package contains:
//   - Module interface for composable layers
//   - Linear: fully connected layer with Xavier initialization
//   - ReLU: rectified linear activation
//   - Sequential: layer container
//   - MSELoss, HuberLoss: loss functions
//
// # Basic Usage
//
//	import (
//	    "github.com/marrow-ml/marrow/nn"
//	    "github.com/marrow-ml/marrow/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    model := nn.NewSequential[*cpu.Backend](
//	        nn.NewLinear(784, 128, backend),
//	        nn.NewReLU[*cpu.Backend](),
//	        nn.NewLinear(128, 10, backend),
//	    )
//	    output := model.Forward(input)
//	}
package nn
