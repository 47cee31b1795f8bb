// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizer slot state (momentum buffers, moment estimates) is allocated
// lazily on the first Step. Weights and SetWeights expose that state as an
// ordered list for checkpointing, and Restore queues a saved list for
// deferred application on the first Step after loading.
//
// # Basic Usage
//
//	import (
//	    "github.com/marrow-ml/marrow/optim"
//	    "github.com/marrow-ml/marrow/nn"
//	    "github.com/marrow-ml/marrow/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    model := nn.NewLinear(784, 10, backend)
//
//	    optimizer := optim.NewAdam(
//	        model.Parameters(),
//	        optim.AdamConfig{LR: 0.001},
//	        backend,
//	    )
//	    optimizer.Step(grads)
//	}
package optim
