package nn

import (
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Sequential is a container that chains modules in order.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(4, 8, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(8, 2, backend),
//	)
type Sequential[B tensor.Backend] struct {
	layers []Module[B]
}

// NewSequential creates a sequential container from the given layers.
func NewSequential[B tensor.Backend](layers ...Module[B]) *Sequential[B] {
	return &Sequential[B]{layers: layers}
}

// Forward passes the input through each layer in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, layer := range s.layers {
		out = layer.Forward(out)
	}
	return out
}

// Parameters returns the parameters of all layers, in layer order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Layers returns the contained layers.
func (s *Sequential[B]) Layers() []Module[B] {
	return s.layers
}

// Serialize returns the container's reconstruction config.
//
// Layer configs are nested under the "layers" key so the container can be
// rebuilt layer by layer through DeserializeLayer.
func (s *Sequential[B]) Serialize() serialization.Serialized {
	layerConfigs := make([]serialization.Serialized, 0, len(s.layers))
	for _, layer := range s.layers {
		layerConfigs = append(layerConfigs, layer.Serialize())
	}
	return serialization.Serialized{
		ClassName: "Sequential",
		Config:    map[string]any{"layers": layerConfigs},
	}
}
