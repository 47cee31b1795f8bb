// Copyright 2026 Marrow ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model couples a layer stack with its loss, metrics and optimizer,
// and provides directory-based save and load.
package model

import (
	"github.com/spf13/afero"

	"github.com/marrow-ml/marrow/internal/model"
	"github.com/marrow-ml/marrow/internal/nn"
	"github.com/marrow-ml/marrow/internal/tensor"
)

// Model is a layer stack with an optional loss, metrics and optimizer.
type Model[B tensor.Backend] = model.Model[B]

// New creates a model from a layer stack.
//
// Example:
//
//	backend := cpu.New()
//	m := model.New(nn.NewSequential[*cpu.Backend](
//	    nn.NewLinear(4, 8, backend),
//	    nn.NewReLU[*cpu.Backend](),
//	    nn.NewLinear(8, 1, backend),
//	), backend)
func New[B tensor.Backend](layers *nn.Sequential[B], backend B) *Model[B] {
	return model.New(layers, backend)
}

// Load reconstructs a model from a directory tree written by Model.Save.
func Load[B tensor.Backend](fsys afero.Fs, dir string, backend B) (*Model[B], error) {
	return model.Load(fsys, dir, backend)
}
