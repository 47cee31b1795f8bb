package pickle

import (
	"github.com/marrow-ml/marrow/internal/metric"
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Metrics and losses are stateless apart from their hyperparameters, so
// they pack as bare configs.

// PackMetric returns the metric's reconstruction config.
func PackMetric(m metric.Metric) serialization.Serialized {
	return m.Serialize()
}

// UnpackMetric reconstructs a metric from its config.
func UnpackMetric(s serialization.Serialized) (metric.Metric, error) {
	return metric.Deserialize(s)
}

// PackLoss returns the loss's reconstruction config.
func PackLoss[B tensor.Backend](l nn.Loss[B]) serialization.Serialized {
	return l.Serialize()
}

// UnpackLoss reconstructs a loss from its config.
func UnpackLoss[B tensor.Backend](s serialization.Serialized, backend B) (nn.Loss[B], error) {
	return nn.DeserializeLoss[B](s, backend)
}
