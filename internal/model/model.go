// Package model couples a layer stack with its loss, metrics and optimizer,
// and gives the ensemble a path-oriented save/load capability.
//
// A saved model is a directory tree:
//
//	<dir>/config.json        architecture, loss, metric and optimizer configs
//	<dir>/model.weights      layer parameters (.marrow format)
//	<dir>/optimizer.weights  optimizer slot state (.marrow format, optional)
//
// All filesystem access goes through afero.Fs, so a model can be saved to
// the operating-system filesystem or to an in-memory staging filesystem
// interchangeably.
package model

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/marrow-ml/marrow/internal/metric"
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/optim"
	"github.com/marrow-ml/marrow/internal/serialization"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// File names inside a saved model directory.
const (
	configFile           = "config.json"
	modelWeightsFile     = "model.weights"
	optimizerWeightsFile = "optimizer.weights"
)

// Model is a layer stack with an optional loss, metrics and optimizer.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Model[B tensor.Backend] struct {
	layers    *nn.Sequential[B]
	loss      nn.Loss[B]
	metrics   []metric.Metric
	optimizer optim.Optimizer
	backend   B
}

// config is the JSON shape of config.json.
type config struct {
	MarrowVersion string                     `json:"marrow_version"`
	Layers        []serialization.Serialized `json:"layers"`
	Loss          *serialization.Serialized  `json:"loss,omitempty"`
	Optimizer     *serialization.Serialized  `json:"optimizer,omitempty"`
	Metrics       []serialization.Serialized `json:"metrics,omitempty"`
}

// New creates a model from a layer stack.
func New[B tensor.Backend](layers *nn.Sequential[B], backend B) *Model[B] {
	return &Model[B]{
		layers:  layers,
		backend: backend,
	}
}

// Compile attaches a loss, an optimizer and optional metrics to the model.
//
// The optimizer may be nil for inference-only models.
func (m *Model[B]) Compile(loss nn.Loss[B], optimizer optim.Optimizer, metrics ...metric.Metric) {
	m.loss = loss
	m.optimizer = optimizer
	m.metrics = metrics
}

// Predict runs a forward pass.
func (m *Model[B]) Predict(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return m.layers.Forward(input)
}

// Layers returns the model's layer stack.
func (m *Model[B]) Layers() *nn.Sequential[B] {
	return m.layers
}

// Parameters returns all trainable parameters, in layer order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	return m.layers.Parameters()
}

// Loss returns the compiled loss, or nil.
func (m *Model[B]) Loss() nn.Loss[B] {
	return m.loss
}

// Metrics returns the compiled metrics.
func (m *Model[B]) Metrics() []metric.Metric {
	return m.metrics
}

// Optimizer returns the compiled optimizer, or nil.
func (m *Model[B]) Optimizer() optim.Optimizer {
	return m.optimizer
}

// StateDict returns the model parameters keyed "layers.{index}.{name}".
func (m *Model[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, layer := range m.layers.Layers() {
		for _, param := range layer.Parameters() {
			stateDict[fmt.Sprintf("layers.%d.%s", i, param.Name())] = param.Tensor().Raw()
		}
	}
	return stateDict
}

// LoadStateDict copies parameter values from a state dictionary into the
// model's parameters.
//
// Every parameter must be present with a matching shape.
func (m *Model[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, layer := range m.layers.Layers() {
		for _, param := range layer.Parameters() {
			key := fmt.Sprintf("layers.%d.%s", i, param.Name())
			raw, ok := stateDict[key]
			if !ok {
				return fmt.Errorf("missing parameter %q", key)
			}
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("parameter %q: shape mismatch: got %v, want %v",
					key, raw.Shape(), param.Tensor().Shape())
			}
			copy(param.Tensor().Raw().AsFloat32(), raw.AsFloat32())
		}
	}
	return nil
}

// Save writes the model as a directory tree under dir.
//
// This writes the architecture and entity configs to config.json, the layer
// parameters to model.weights, and — if an optimizer is attached — its slot
// state to optimizer.weights.
func (m *Model[B]) Save(fsys afero.Fs, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	cfg := config{
		MarrowVersion: "0.1.0",
		Layers:        make([]serialization.Serialized, 0, len(m.layers.Layers())),
	}
	for _, layer := range m.layers.Layers() {
		cfg.Layers = append(cfg.Layers, layer.Serialize())
	}
	if m.loss != nil {
		s := m.loss.Serialize()
		cfg.Loss = &s
	}
	if m.optimizer != nil {
		s := m.optimizer.Serialize()
		cfg.Optimizer = &s
	}
	for _, met := range m.metrics {
		cfg.Metrics = append(cfg.Metrics, met.Serialize())
	}

	configJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := afero.WriteFile(fsys, join(dir, configFile), configJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := serialization.WriteWeights(fsys, join(dir, modelWeightsFile), m.StateDict(), "Sequential", nil); err != nil {
		return fmt.Errorf("failed to write model weights: %w", err)
	}

	if m.optimizer != nil {
		if err := saveOptimizerWeights(fsys, join(dir, optimizerWeightsFile), m.optimizer); err != nil {
			return fmt.Errorf("failed to write optimizer weights: %w", err)
		}
	}

	return nil
}

// Load reconstructs a model from a directory tree written by Save.
//
// The optimizer (if any) is rebuilt from its config and its saved slot
// state is queued for deferred restoration: it is applied on the
// optimizer's first Step, after the slots have been allocated.
func Load[B tensor.Backend](fsys afero.Fs, dir string, backend B) (*Model[B], error) {
	configJSON, err := afero.ReadFile(fsys, join(dir, configFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg config
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	layers := make([]nn.Module[B], 0, len(cfg.Layers))
	for i, layerCfg := range cfg.Layers {
		layer, err := nn.DeserializeLayer(layerCfg, backend)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, layer)
	}

	m := New(nn.NewSequential(layers...), backend)

	_, stateDict, err := serialization.ReadWeights(fsys, join(dir, modelWeightsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read model weights: %w", err)
	}
	if err := m.LoadStateDict(stateDict); err != nil {
		return nil, fmt.Errorf("failed to load model weights: %w", err)
	}

	if cfg.Loss != nil {
		loss, err := nn.DeserializeLoss(*cfg.Loss, backend)
		if err != nil {
			return nil, err
		}
		m.loss = loss
	}

	for _, metricCfg := range cfg.Metrics {
		met, err := metric.Deserialize(metricCfg)
		if err != nil {
			return nil, err
		}
		m.metrics = append(m.metrics, met)
	}

	if cfg.Optimizer != nil {
		opt, err := optim.Deserialize(*cfg.Optimizer, m.Parameters(), backend)
		if err != nil {
			return nil, err
		}
		m.optimizer = opt

		weights, err := loadOptimizerWeights(fsys, join(dir, optimizerWeightsFile))
		if err != nil {
			return nil, err
		}
		opt.Restore(weights)
	}

	return m, nil
}

// saveOptimizerWeights writes the optimizer's ordered weight list to a
// .marrow file, keyed so the order survives the name-sorted format.
func saveOptimizerWeights(fsys afero.Fs, path string, opt optim.Optimizer) error {
	weights := opt.Weights()
	stateDict := make(map[string]*tensor.RawTensor, len(weights))
	for i, w := range weights {
		stateDict[fmt.Sprintf("slot.%06d", i)] = w
	}
	return serialization.WriteWeights(fsys, path, stateDict, "Optimizer", nil)
}

// loadOptimizerWeights reads an ordered optimizer weight list written by
// saveOptimizerWeights. A missing file yields a nil list.
func loadOptimizerWeights(fsys afero.Fs, path string) ([]*tensor.RawTensor, error) {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check optimizer weights: %w", err)
	}
	if !exists {
		return nil, nil
	}

	_, stateDict, err := serialization.ReadWeights(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read optimizer weights: %w", err)
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	weights := make([]*tensor.RawTensor, 0, len(names))
	for _, name := range names {
		weights = append(weights, stateDict[name])
	}
	return weights, nil
}

// join builds a path inside a model directory.
func join(dir, name string) string {
	return filepath.Join(dir, name)
}
