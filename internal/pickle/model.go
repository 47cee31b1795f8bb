package pickle

import (
	"github.com/spf13/afero"

	"github.com/marrow-ml/marrow/internal/model"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// PackedModel is the flat, pure-data representation of a model.
//
// Archive is an in-memory tar blob of the model's saved directory tree.
// OptimizerWeights carries the optimizer's ordered weight list separately,
// so it survives even when the archive was written before the optimizer
// allocated its slots.
type PackedModel struct {
	Archive          []byte
	OptimizerWeights []*tensor.RawTensor
}

// PackModel converts a live model into its packed representation.
//
// The model is saved into a fresh staging root, the resulting tree is
// archived in memory, and the staging root is torn down before returning.
func PackModel[B tensor.Backend](m *model.Model[B]) (*PackedModel, error) {
	packed := &PackedModel{}

	err := withStaging(func(fsys afero.Fs, root string) error {
		if err := m.Save(fsys, root); err != nil {
			return err
		}
		blob, err := archiveTree(fsys, root)
		if err != nil {
			return err
		}
		packed.Archive = blob
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opt := m.Optimizer(); opt != nil {
		packed.OptimizerWeights = opt.Weights()
	}
	return packed, nil
}

// UnpackModel reconstructs a live model from its packed representation.
//
// The archive is extracted into a fresh staging root and loaded from there.
// If the model carries an optimizer, the packed weight list is queued on it
// for deferred restoration; it is applied on the optimizer's first Step.
func UnpackModel[B tensor.Backend](packed *PackedModel, backend B) (*model.Model[B], error) {
	var m *model.Model[B]

	err := withStaging(func(fsys afero.Fs, root string) error {
		if err := extractTree(fsys, root, packed.Archive); err != nil {
			return err
		}
		loaded, err := model.Load(fsys, root, backend)
		if err != nil {
			return err
		}
		if err := removeTree(fsys, root); err != nil {
			return err
		}
		m = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opt := m.Optimizer(); opt != nil && packed.OptimizerWeights != nil {
		opt.Restore(packed.OptimizerWeights)
	}
	return m, nil
}
