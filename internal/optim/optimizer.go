// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers allocate their per-parameter state ("slots": momentum
// velocities, Adam moment estimates) lazily on the first Step call, not at
// construction time. Weight restoration therefore runs deferred: Restore
// queues a weight list, and the first Step applies it right after slot
// allocation, discarding it silently if the shapes no longer match (for
// example when the optimizer was serialized before any training happened).
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.001,
//	}, backend)
//
//	for epoch := range epochs {
//	    grads := computeGradients(model, batch)
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"errors"
	"fmt"

	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// ErrSlotsNotAllocated is returned by SetWeights before the optimizer's
// first Step has allocated its slot state.
var ErrSlotsNotAllocated = errors.New("optimizer slots not allocated")

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a map from parameter tensors to gradient tensors and updates
	// parameters in-place. The first call also allocates slot state and
	// applies any weight list queued by Restore.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// Weights returns the optimizer's weight arrays in a stable order:
	// the step counter as a shape-[1] tensor first, then the slot tensors
	// in parameter order.
	Weights() []*tensor.RawTensor

	// SetWeights replaces the optimizer's weight arrays.
	//
	// The list must follow the Weights ordering contract. Returns
	// ErrSlotsNotAllocated before the first Step, and a count/shape
	// mismatch error without applying anything when the list does not
	// match the allocated slots.
	SetWeights(weights []*tensor.RawTensor) error

	// Restore queues a weight list for deferred application.
	//
	// The list is applied right after the next slot allocation and then
	// dropped; a mismatching list is dropped silently, leaving the
	// freshly-initialized slot state in place.
	Restore(weights []*tensor.RawTensor)

	// Serialize returns the class identifier and hyperparameters needed
	// to reconstruct an equivalent optimizer via Deserialize.
	Serialize() serialization.Serialized
}

// Deserialize reconstructs an optimizer from its serialized config, bound
// to the given parameters.
//
// Slot state is not part of the config; it is restored separately through
// Restore.
func Deserialize[B tensor.Backend](s serialization.Serialized, params []*nn.Parameter[B], backend B) (Optimizer, error) {
	switch s.ClassName {
	case "SGD":
		lr, err := nn.ConfigFloat(s.Config, "lr")
		if err != nil {
			return nil, fmt.Errorf("SGD: %w", err)
		}
		momentum, err := nn.ConfigFloat(s.Config, "momentum")
		if err != nil {
			return nil, fmt.Errorf("SGD: %w", err)
		}
		return NewSGD(params, SGDConfig{LR: float32(lr), Momentum: float32(momentum)}, backend), nil
	case "Adam":
		lr, err := nn.ConfigFloat(s.Config, "lr")
		if err != nil {
			return nil, fmt.Errorf("Adam: %w", err)
		}
		beta1, err := nn.ConfigFloat(s.Config, "beta_1")
		if err != nil {
			return nil, fmt.Errorf("Adam: %w", err)
		}
		beta2, err := nn.ConfigFloat(s.Config, "beta_2")
		if err != nil {
			return nil, fmt.Errorf("Adam: %w", err)
		}
		eps, err := nn.ConfigFloat(s.Config, "epsilon")
		if err != nil {
			return nil, fmt.Errorf("Adam: %w", err)
		}
		return NewAdam(params, AdamConfig{
			LR:    float32(lr),
			Betas: [2]float32{float32(beta1), float32(beta2)},
			Eps:   float32(eps),
		}, backend), nil
	default:
		return nil, fmt.Errorf("unknown optimizer class %q", s.ClassName)
	}
}

// getGradient safely retrieves the gradient for a parameter.
//
// Returns nil if no gradient is found (parameter wasn't part of the
// computation).
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}

// stepCounter wraps the optimizer's step count in a shape-[1] tensor for
// the Weights ordering contract.
func stepCounter(step int, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.FromFloat32([]float32{float32(step)}, tensor.Shape{1}, device)
	if err != nil {
		panic(err)
	}
	return raw
}

// checkSlotShapes validates a weight list against the expected slot shapes
// before anything is applied, so a mismatching restore leaves the optimizer
// untouched.
//
// weights[0] must be the shape-[1] step counter; weights[1:] must match
// slots pairwise.
func checkSlotShapes(weights []*tensor.RawTensor, slots []*tensor.RawTensor) error {
	if len(weights) != len(slots)+1 {
		return fmt.Errorf("weight count mismatch: got %d, want %d", len(weights), len(slots)+1)
	}
	if !weights[0].Shape().Equal(tensor.Shape{1}) {
		return fmt.Errorf("step counter shape mismatch: got %v, want [1]", weights[0].Shape())
	}
	for i, slot := range slots {
		if !weights[i+1].Shape().Equal(slot.Shape()) {
			return fmt.Errorf("slot %d shape mismatch: got %v, want %v", i, weights[i+1].Shape(), slot.Shape())
		}
	}
	return nil
}
