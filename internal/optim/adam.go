package optim

import (
	"math"

	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Two slots per parameter (first and second moment) are allocated lazily
// on the first Step.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam[B tensor.Backend] struct {
	params    []*nn.Parameter[B]
	lr        float32
	beta1     float32
	beta2     float32
	eps       float32
	step      int                          // Timestep for bias correction
	m         []*tensor.Tensor[float32, B] // First moment estimates, in parameter order
	v         []*tensor.Tensor[float32, B] // Second moment estimates, in parameter order
	allocated bool
	pending   []*tensor.RawTensor // Weight list queued by Restore
	backend   B
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		backend: backend,
	}
}

// Step performs a single optimization step using the Adam algorithm.
//
// The first call allocates the moment slots and applies any weight list
// queued by Restore. Parameters with no gradient are skipped.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.ensureSlots()
	a.resolvePending()
	a.step++

	// bias_correction1 = 1 - beta1^t
	// bias_correction2 = 1 - beta2^t
	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.step)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.step)))

	for i, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			// Parameter didn't participate in the computation, skip
			continue
		}

		a.updateParameter(param, grad, a.m[i], a.v[i], biasCorrection1, biasCorrection2)
	}
}

// updateParameter performs the Adam update for a single parameter.
func (a *Adam[B]) updateParameter(
	param *nn.Parameter[B],
	grad *tensor.RawTensor,
	m, v *tensor.Tensor[float32, B],
	biasCorrection1, biasCorrection2 float32,
) {
	gradData := grad.AsFloat32()
	mData := m.Raw().AsFloat32()
	vData := v.Raw().AsFloat32()
	paramData := param.Tensor().Raw().AsFloat32()

	for i := range paramData {
		g := gradData[i]

		// m_t = beta1 * m_{t-1} + (1-beta1) * grad
		mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g

		// v_t = beta2 * v_{t-1} + (1-beta2) * grad²
		vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

		mHat := mData[i] / biasCorrection1
		vHat := vData[i] / biasCorrection2

		// param = param - lr * m_hat / (sqrt(v_hat) + eps)
		paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
	}
}

// ensureSlots allocates the first and second moment slots for every
// parameter, keeping the Weights ordering deterministic.
func (a *Adam[B]) ensureSlots() {
	if a.allocated {
		return
	}
	a.m = make([]*tensor.Tensor[float32, B], len(a.params))
	a.v = make([]*tensor.Tensor[float32, B], len(a.params))
	for i, param := range a.params {
		a.m[i] = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
		a.v[i] = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
	}
	a.allocated = true
}

// resolvePending applies a queued weight restoration exactly once,
// dropping a mismatching list silently.
func (a *Adam[B]) resolvePending() {
	if a.pending == nil {
		return
	}
	_ = a.SetWeights(a.pending)
	a.pending = nil
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam[B]) GetTimestep() int {
	return a.step
}

// Weights returns the step counter followed by the first moments and then
// the second moments, each in parameter order. Before the first Step only
// the step counter is returned.
func (a *Adam[B]) Weights() []*tensor.RawTensor {
	weights := []*tensor.RawTensor{stepCounter(a.step, a.backend.Device())}
	for _, m := range a.m {
		weights = append(weights, m.Raw().Clone())
	}
	for _, v := range a.v {
		weights = append(weights, v.Raw().Clone())
	}
	return weights
}

// SetWeights replaces the step counter and moment slots.
//
// The weight list is validated in full before anything is applied, so a
// mismatch leaves the optimizer untouched.
func (a *Adam[B]) SetWeights(weights []*tensor.RawTensor) error {
	if !a.allocated {
		return ErrSlotsNotAllocated
	}

	slots := make([]*tensor.RawTensor, 0, 2*len(a.params))
	for _, m := range a.m {
		slots = append(slots, m.Raw())
	}
	for _, v := range a.v {
		slots = append(slots, v.Raw())
	}
	if err := checkSlotShapes(weights, slots); err != nil {
		return err
	}

	a.step = int(weights[0].AsFloat32()[0])
	for i, slot := range slots {
		copy(slot.AsFloat32(), weights[i+1].AsFloat32())
	}
	return nil
}

// Restore queues a weight list for deferred application after the next
// slot allocation.
func (a *Adam[B]) Restore(weights []*tensor.RawTensor) {
	if weights == nil {
		return
	}
	a.pending = weights
}

// Serialize returns the optimizer's reconstruction config.
func (a *Adam[B]) Serialize() serialization.Serialized {
	return serialization.Serialized{
		ClassName: "Adam",
		Config: map[string]any{
			"lr":      float64(a.lr),
			"beta_1":  float64(a.beta1),
			"beta_2":  float64(a.beta2),
			"epsilon": float64(a.eps),
		},
	}
}
