package optim

import (
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// With momentum enabled, one velocity slot per parameter is allocated
// lazily on the first Step.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	step       int
	velocities []*tensor.Tensor[float32, B] // One slot per parameter, in parameter order
	allocated  bool
	pending    []*tensor.RawTensor // Weight list queued by Restore
	backend    B
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		backend:  backend,
	}
}

// Step performs a single optimization step.
//
// The first call allocates the velocity slots and applies any weight list
// queued by Restore. Parameters with no gradient are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	s.ensureSlots()
	s.resolvePending()
	s.step++

	for i, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			// Parameter didn't participate in the computation, skip
			continue
		}

		gradTensor := tensor.New[float32, B](grad, s.backend)

		if s.momentum == 0 {
			s.updateParameter(param, gradTensor)
		} else {
			s.updateParameterWithMomentum(param, gradTensor, s.velocities[i])
		}
	}
}

// updateParameter performs a plain SGD update without momentum.
func (s *SGD[B]) updateParameter(param *nn.Parameter[B], grad *tensor.Tensor[float32, B]) {
	// param -= lr * grad
	updated := param.Tensor().Sub(grad.MulScalar(s.lr))
	copy(param.Tensor().Raw().AsFloat32(), updated.Raw().AsFloat32())
}

// updateParameterWithMomentum performs an SGD update with momentum.
func (s *SGD[B]) updateParameterWithMomentum(param *nn.Parameter[B], grad, velocity *tensor.Tensor[float32, B]) {
	// velocity = momentum * velocity + grad
	newVelocity := velocity.MulScalar(s.momentum).Add(grad)
	copy(velocity.Raw().AsFloat32(), newVelocity.Raw().AsFloat32())

	// param -= lr * velocity
	updated := param.Tensor().Sub(velocity.MulScalar(s.lr))
	copy(param.Tensor().Raw().AsFloat32(), updated.Raw().AsFloat32())
}

// ensureSlots allocates one velocity slot per parameter.
//
// Slots are allocated for every parameter, not just those that carry a
// gradient, so the Weights ordering stays deterministic.
func (s *SGD[B]) ensureSlots() {
	if s.allocated {
		return
	}
	if s.momentum != 0 {
		s.velocities = make([]*tensor.Tensor[float32, B], len(s.params))
		for i, param := range s.params {
			s.velocities[i] = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		}
	}
	s.allocated = true
}

// resolvePending applies a queued weight restoration exactly once.
//
// A list that no longer matches the allocated slots (for example when the
// optimizer was serialized before any training, or is now bound to a
// different parameter set) is dropped, leaving fresh slot state in place.
func (s *SGD[B]) resolvePending() {
	if s.pending == nil {
		return
	}
	_ = s.SetWeights(s.pending)
	s.pending = nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// Weights returns the step counter followed by the velocity slots in
// parameter order. Before the first Step (or without momentum) only the
// step counter is returned.
func (s *SGD[B]) Weights() []*tensor.RawTensor {
	weights := []*tensor.RawTensor{stepCounter(s.step, s.backend.Device())}
	for _, velocity := range s.velocities {
		weights = append(weights, velocity.Raw().Clone())
	}
	return weights
}

// SetWeights replaces the step counter and velocity slots.
//
// The weight list is validated in full before anything is applied, so a
// mismatch leaves the optimizer untouched.
func (s *SGD[B]) SetWeights(weights []*tensor.RawTensor) error {
	if !s.allocated {
		return ErrSlotsNotAllocated
	}

	slots := make([]*tensor.RawTensor, len(s.velocities))
	for i, velocity := range s.velocities {
		slots[i] = velocity.Raw()
	}
	if err := checkSlotShapes(weights, slots); err != nil {
		return err
	}

	s.step = int(weights[0].AsFloat32()[0])
	for i, slot := range slots {
		copy(slot.AsFloat32(), weights[i+1].AsFloat32())
	}
	return nil
}

// Restore queues a weight list for deferred application after the next
// slot allocation.
func (s *SGD[B]) Restore(weights []*tensor.RawTensor) {
	if weights == nil {
		return
	}
	s.pending = weights
}

// Serialize returns the optimizer's reconstruction config.
func (s *SGD[B]) Serialize() serialization.Serialized {
	return serialization.Serialized{
		ClassName: "SGD",
		Config: map[string]any{
			"lr":       float64(s.lr),
			"momentum": float64(s.momentum),
		},
	}
}
