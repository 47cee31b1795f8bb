// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Serialized is the reconstruction config of a layer, loss, metric or
// optimizer: a class name plus keyword arguments.
type Serialized = serialization.Serialized

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// ReLU represents the rectified linear activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sequential is an ordered container of modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given layers.
func NewSequential[B tensor.Backend](layers ...Module[B]) *Sequential[B] {
	return nn.NewSequential(layers...)
}

// DeserializeLayer reconstructs a layer from its serialized config.
func DeserializeLayer[B tensor.Backend](s serialization.Serialized, backend B) (Module[B], error) {
	return nn.DeserializeLayer[B](s, backend)
}

// Losses

// Loss is the interface implemented by all loss functions.
type Loss[B tensor.Backend] = nn.Loss[B]

// MSELoss computes mean squared error.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a mean squared error loss.
func NewMSELoss[B tensor.Backend](backend B) *MSELoss[B] {
	return nn.NewMSELoss(backend)
}

// HuberLoss computes the Huber loss, quadratic near zero and linear beyond delta.
type HuberLoss[B tensor.Backend] = nn.HuberLoss[B]

// NewHuberLoss creates a Huber loss. A zero delta defaults to 1.0.
func NewHuberLoss[B tensor.Backend](delta float32, backend B) *HuberLoss[B] {
	return nn.NewHuberLoss(delta, backend)
}

// DeserializeLoss reconstructs a loss from its serialized config.
func DeserializeLoss[B tensor.Backend](s serialization.Serialized, backend B) (Loss[B], error) {
	return nn.DeserializeLoss[B](s, backend)
}
