package nn

import (
	"fmt"

	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// DeserializeLayer reconstructs a layer from its serialized config.
//
// The config must have been produced by the layer's Serialize method.
// Weights are not part of the config; they are restored separately from the
// state dictionary.
func DeserializeLayer[B tensor.Backend](s serialization.Serialized, backend B) (Module[B], error) {
	switch s.ClassName {
	case "Linear":
		in, err := ConfigInt(s.Config, "in_features")
		if err != nil {
			return nil, fmt.Errorf("Linear: %w", err)
		}
		out, err := ConfigInt(s.Config, "out_features")
		if err != nil {
			return nil, fmt.Errorf("Linear: %w", err)
		}
		return NewLinear(in, out, backend), nil
	case "ReLU":
		return NewReLU[B](), nil
	default:
		return nil, fmt.Errorf("unknown layer class %q", s.ClassName)
	}
}

// DeserializeLoss reconstructs a loss function from its serialized config.
func DeserializeLoss[B tensor.Backend](s serialization.Serialized, backend B) (Loss[B], error) {
	switch s.ClassName {
	case "MSE":
		return NewMSELoss(backend), nil
	case "Huber":
		delta, err := ConfigFloat(s.Config, "delta")
		if err != nil {
			return nil, fmt.Errorf("Huber: %w", err)
		}
		return NewHuberLoss(float32(delta), backend), nil
	default:
		return nil, fmt.Errorf("unknown loss class %q", s.ClassName)
	}
}

// ConfigInt reads an integer config value.
//
// JSON decoding turns numbers into float64, so both int and float64
// representations are accepted.
func ConfigInt(config map[string]any, key string) (int, error) {
	v, ok := config[key]
	if !ok {
		return 0, fmt.Errorf("missing config key %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("config key %q is %T, not a number", key, v)
	}
}

// ConfigFloat reads a float config value.
func ConfigFloat(config map[string]any, key string) (float64, error) {
	v, ok := config[key]
	if !ok {
		return 0, fmt.Errorf("missing config key %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("config key %q is %T, not a number", key, v)
	}
}
