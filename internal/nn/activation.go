package nn

import (
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// ReLU implements the rectified linear activation: max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies element-wise max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](input.Backend().ReLU(input.Raw()), input.Backend())
}

// Parameters returns an empty slice (activations have no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Serialize returns the layer's reconstruction config.
func (r *ReLU[B]) Serialize() serialization.Serialized {
	return serialization.Serialized{ClassName: "ReLU", Config: map[string]any{}}
}
