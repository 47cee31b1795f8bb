// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metric provides evaluation metrics for the Marrow ML framework.
package metric

import (
	"github.com/marrow-ml/marrow/internal/metric"
	"github.com/marrow-ml/marrow/internal/serialization"
)

// Metric is the interface implemented by all evaluation metrics.
type Metric = metric.Metric

// BinaryAccuracy measures the fraction of thresholded predictions that
// match their targets.
type BinaryAccuracy = metric.BinaryAccuracy

// NewBinaryAccuracy creates a binary accuracy metric. A zero threshold
// defaults to 0.5.
func NewBinaryAccuracy(threshold float32) *BinaryAccuracy {
	return metric.NewBinaryAccuracy(threshold)
}

// MeanAbsoluteError measures the mean absolute difference between
// predictions and targets.
type MeanAbsoluteError = metric.MeanAbsoluteError

// NewMeanAbsoluteError creates a mean absolute error metric.
func NewMeanAbsoluteError() *MeanAbsoluteError {
	return metric.NewMeanAbsoluteError()
}

// Deserialize reconstructs a metric from its serialized config.
func Deserialize(s serialization.Serialized) (Metric, error) {
	return metric.Deserialize(s)
}
