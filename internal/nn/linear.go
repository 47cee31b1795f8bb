package nn

import (
	"math"

	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Linear implements a fully connected layer: output = input @ weight + bias.
//
// Weight has shape [in_features, out_features], bias has shape [out_features].
//
// Example:
//
//	layer := nn.NewLinear(784, 10, backend)
//	output := layer.Forward(input) // [batch, 784] -> [batch, 10]
type Linear[B tensor.Backend] struct {
	weight      *Parameter[B]
	bias        *Parameter[B]
	inFeatures  int
	outFeatures int
	backend     B
}

// NewLinear creates a new fully connected layer.
//
// Weights are initialized with Xavier/Glorot initialization; the bias
// starts at zero.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	scale := float32(math.Sqrt(2.0 / float64(inFeatures+outFeatures)))
	weight := tensor.Randn[float32](tensor.Shape{inFeatures, outFeatures}, backend).MulScalar(scale)
	bias := tensor.Zeros[float32](tensor.Shape{outFeatures}, backend)

	return &Linear[B]{
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		backend:     backend,
	}
}

// Forward computes output = input @ weight + bias.
//
// Input shape: [batch_size, in_features]. Output shape: [batch_size, out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	product := l.backend.MatMul(input.Raw(), l.weight.Tensor().Raw())
	out := l.backend.AddBias(product, l.bias.Tensor().Raw())
	return tensor.New[float32, B](out, l.backend)
}

// Parameters returns the weight and bias parameters.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// InFeatures returns the input feature count.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output feature count.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// Serialize returns the layer's reconstruction config.
func (l *Linear[B]) Serialize() serialization.Serialized {
	return serialization.Serialized{
		ClassName: "Linear",
		Config: map[string]any{
			"in_features":  l.inFeatures,
			"out_features": l.outFeatures,
		},
	}
}
