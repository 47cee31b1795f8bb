package pickle

import (
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/optim"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// PackedOptimizer is the flat, pure-data representation of an optimizer:
// its reconstruction config plus its ordered weight list.
type PackedOptimizer struct {
	Config  serialization.Serialized
	Weights []*tensor.RawTensor
}

// PackOptimizer converts a live optimizer into its packed representation.
func PackOptimizer(opt optim.Optimizer) *PackedOptimizer {
	return &PackedOptimizer{
		Config:  opt.Serialize(),
		Weights: opt.Weights(),
	}
}

// UnpackOptimizer reconstructs an optimizer over params from its packed
// representation. The packed weight list is queued for deferred
// restoration and applied on the first Step.
func UnpackOptimizer[B tensor.Backend](packed *PackedOptimizer, params []*nn.Parameter[B], backend B) (optim.Optimizer, error) {
	opt, err := optim.Deserialize(packed.Config, params, backend)
	if err != nil {
		return nil, err
	}
	opt.Restore(packed.Weights)
	return opt, nil
}
