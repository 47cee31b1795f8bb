// Package nn implements neural network modules for the Marrow ML Framework.
//
// This package provides the building blocks the serialization layer works
// against:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear: Fully connected layer
//   - ReLU: Rectified linear activation
//   - Loss functions: MSE, Huber
//   - Sequential: Container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]

	// Serialize returns the class identifier and constructor arguments
	// needed to reconstruct an equivalent module via DeserializeLayer.
	Serialize() serialization.Serialized
}
