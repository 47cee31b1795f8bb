// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pickle converts live models, optimizers, metrics and losses into
// flat, pure-data representations and back, so they can cross process
// boundaries through generic serialization channels such as encoding/gob.
//
// # Basic Usage
//
//	packed, err := pickle.PackModel(m)
//	// ... gob/network/storage boundary ...
//	m2, err := pickle.UnpackModel(packed, backend)
package pickle

import (
	"github.com/marrow-ml/marrow/internal/metric"
	"github.com/marrow-ml/marrow/internal/model"
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/optim"
	"github.com/marrow-ml/marrow/internal/pickle"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Serialized is the reconstruction config of a layer, loss, metric or
// optimizer: a class name plus keyword arguments.
type Serialized = serialization.Serialized

// PackedModel is the flat, pure-data representation of a model.
type PackedModel = pickle.PackedModel

// PackModel converts a live model into its packed representation.
func PackModel[B tensor.Backend](m *model.Model[B]) (*PackedModel, error) {
	return pickle.PackModel(m)
}

// UnpackModel reconstructs a live model from its packed representation.
// Packed optimizer weights are queued for deferred restoration and applied
// on the optimizer's first Step.
func UnpackModel[B tensor.Backend](packed *PackedModel, backend B) (*model.Model[B], error) {
	return pickle.UnpackModel(packed, backend)
}

// PackedOptimizer is the flat, pure-data representation of an optimizer.
type PackedOptimizer = pickle.PackedOptimizer

// PackOptimizer converts a live optimizer into its packed representation.
func PackOptimizer(opt optim.Optimizer) *PackedOptimizer {
	return pickle.PackOptimizer(opt)
}

// UnpackOptimizer reconstructs an optimizer over params from its packed
// representation.
func UnpackOptimizer[B tensor.Backend](packed *PackedOptimizer, params []*nn.Parameter[B], backend B) (optim.Optimizer, error) {
	return pickle.UnpackOptimizer(packed, params, backend)
}

// PackMetric returns the metric's reconstruction config.
func PackMetric(m metric.Metric) Serialized {
	return pickle.PackMetric(m)
}

// UnpackMetric reconstructs a metric from its config.
func UnpackMetric(s Serialized) (metric.Metric, error) {
	return pickle.UnpackMetric(s)
}

// PackLoss returns the loss's reconstruction config.
func PackLoss[B tensor.Backend](l nn.Loss[B]) Serialized {
	return pickle.PackLoss(l)
}

// UnpackLoss reconstructs a loss from its config.
func UnpackLoss[B tensor.Backend](s Serialized, backend B) (nn.Loss[B], error) {
	return pickle.UnpackLoss[B](s, backend)
}
