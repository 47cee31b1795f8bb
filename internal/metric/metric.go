// Package metric implements evaluation metrics for the Marrow ML Framework.
//
// Metrics are stateless configuration objects: they carry hyperparameters
// but no weights, so they serialize through their config alone.
package metric

import (
	"fmt"

	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Metric evaluates predictions against targets.
type Metric interface {
	// Name returns a human-readable metric name.
	Name() string

	// Compute evaluates the metric over all elements of the given tensors.
	// Predictions and targets must have the same shape.
	Compute(predictions, targets *tensor.RawTensor) float64

	// Serialize returns the metric's reconstruction config.
	Serialize() serialization.Serialized
}

// Deserialize reconstructs a metric from its serialized config.
func Deserialize(s serialization.Serialized) (Metric, error) {
	switch s.ClassName {
	case "BinaryAccuracy":
		threshold := 0.5
		if v, ok := s.Config["threshold"]; ok {
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("BinaryAccuracy: threshold is %T, not a number", v)
			}
			threshold = f
		}
		return NewBinaryAccuracy(float32(threshold)), nil
	case "MeanAbsoluteError":
		return NewMeanAbsoluteError(), nil
	default:
		return nil, fmt.Errorf("unknown metric class %q", s.ClassName)
	}
}

// BinaryAccuracy measures the fraction of predictions that land on the same
// side of the threshold as their targets.
type BinaryAccuracy struct {
	threshold float32
}

// NewBinaryAccuracy creates a binary accuracy metric.
// A threshold of 0 defaults to 0.5.
func NewBinaryAccuracy(threshold float32) *BinaryAccuracy {
	if threshold == 0 {
		threshold = 0.5
	}
	return &BinaryAccuracy{threshold: threshold}
}

// Name returns the metric name.
func (b *BinaryAccuracy) Name() string {
	return "binary_accuracy"
}

// Threshold returns the decision threshold.
func (b *BinaryAccuracy) Threshold() float32 {
	return b.threshold
}

// Compute returns the fraction of matching predictions.
func (b *BinaryAccuracy) Compute(predictions, targets *tensor.RawTensor) float64 {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("BinaryAccuracy: predictions and targets must have the same shape")
	}

	predData := predictions.AsFloat32()
	targetData := targets.AsFloat32()

	var correct int
	for i := range predData {
		if (predData[i] >= b.threshold) == (targetData[i] >= b.threshold) {
			correct++
		}
	}
	return float64(correct) / float64(len(predData))
}

// Serialize returns the metric's reconstruction config.
func (b *BinaryAccuracy) Serialize() serialization.Serialized {
	return serialization.Serialized{
		ClassName: "BinaryAccuracy",
		Config:    map[string]any{"threshold": float64(b.threshold)},
	}
}

// MeanAbsoluteError measures mean(|predictions - targets|).
type MeanAbsoluteError struct{}

// NewMeanAbsoluteError creates a mean absolute error metric.
func NewMeanAbsoluteError() *MeanAbsoluteError {
	return &MeanAbsoluteError{}
}

// Name returns the metric name.
func (m *MeanAbsoluteError) Name() string {
	return "mean_absolute_error"
}

// Compute returns the mean absolute difference.
func (m *MeanAbsoluteError) Compute(predictions, targets *tensor.RawTensor) float64 {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MeanAbsoluteError: predictions and targets must have the same shape")
	}

	predData := predictions.AsFloat32()
	targetData := targets.AsFloat32()

	var sum float64
	for i := range predData {
		d := float64(predData[i]) - float64(targetData[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(predData))
}

// Serialize returns the metric's reconstruction config.
func (m *MeanAbsoluteError) Serialize() serialization.Serialized {
	return serialization.Serialized{ClassName: "MeanAbsoluteError", Config: map[string]any{}}
}
