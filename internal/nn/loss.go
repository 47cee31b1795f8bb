package nn

import (
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Loss is the interface for loss functions.
//
// Loss functions are stateless configuration objects: they carry
// hyperparameters but no weights, so they serialize through their config
// alone.
type Loss[B tensor.Backend] interface {
	// Forward computes the scalar loss for predictions against targets.
	Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Serialize returns the loss's reconstruction config.
	Serialize() serialization.Serialized
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// Example:
//
//	mse := nn.NewMSELoss(backend)
//	predictions := model.Forward(input)
//	loss := mse.Forward(predictions, targets)
type MSELoss[B tensor.Backend] struct {
	backend B
}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend](backend B) *MSELoss[B] {
	return &MSELoss[B]{backend: backend}
}

// Forward computes the MSE loss.
//
// Returns a scalar loss value (shape [1]).
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	diff := predictions.Sub(targets)
	squared := diff.Mul(diff)

	data := squared.Raw().AsFloat32()
	var sum float32
	for _, v := range data {
		sum += v
	}
	mean := sum / float32(len(data))

	return scalarLoss(mean, m.backend)
}

// Serialize returns the loss's reconstruction config.
func (m *MSELoss[B]) Serialize() serialization.Serialized {
	return serialization.Serialized{ClassName: "MSE", Config: map[string]any{}}
}

// HuberLoss computes the Huber loss, quadratic near zero and linear beyond
// the delta threshold.
//
//	|d| <= delta: 0.5 * d²
//	|d| >  delta: delta * (|d| - 0.5 * delta)
type HuberLoss[B tensor.Backend] struct {
	delta   float32
	backend B
}

// NewHuberLoss creates a new Huber loss with the given threshold.
// A delta of 0 defaults to 1.0.
func NewHuberLoss[B tensor.Backend](delta float32, backend B) *HuberLoss[B] {
	if delta == 0 {
		delta = 1.0
	}
	return &HuberLoss[B]{delta: delta, backend: backend}
}

// Delta returns the quadratic/linear threshold.
func (h *HuberLoss[B]) Delta() float32 {
	return h.delta
}

// Forward computes the Huber loss.
//
// Returns a scalar loss value (shape [1]).
func (h *HuberLoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("HuberLoss: predictions and targets must have the same shape")
	}

	predData := predictions.Raw().AsFloat32()
	targetData := targets.Raw().AsFloat32()

	var sum float32
	for i := range predData {
		d := predData[i] - targetData[i]
		if d < 0 {
			d = -d
		}
		if d <= h.delta {
			sum += 0.5 * d * d
		} else {
			sum += h.delta * (d - 0.5*h.delta)
		}
	}
	mean := sum / float32(len(predData))

	return scalarLoss(mean, h.backend)
}

// Serialize returns the loss's reconstruction config.
func (h *HuberLoss[B]) Serialize() serialization.Serialized {
	return serialization.Serialized{
		ClassName: "Huber",
		Config:    map[string]any{"delta": float64(h.delta)},
	}
}

// scalarLoss wraps a single float in a shape-[1] tensor.
func scalarLoss[B tensor.Backend](value float32, backend B) *tensor.Tensor[float32, B] {
	raw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	raw.AsFloat32()[0] = value
	return tensor.New[float32, B](raw, backend)
}
