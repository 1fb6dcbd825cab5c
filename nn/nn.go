// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/descent/internal/nn"
	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// Module is anything that owns a parameter tree.
type Module = nn.Module

// Layer is a module with a forward pass.
type Layer = nn.Layer

// Params holds a parameter tree and the set of frozen paths.
type Params = nn.Params

// ErrUnknownParameter is returned when a path does not name a parameter.
var ErrUnknownParameter = nn.ErrUnknownParameter

// Parameter keys.
const (
	WeightKey = nn.WeightKey
	BiasKey   = nn.BiasKey
	LayersKey = nn.LayersKey
)

// NewParams wraps a parameter tree.
func NewParams(params *tree.Tree) *Params {
	return nn.NewParams(params)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(784, 128, rand.New(rand.NewSource(1)))
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// Sequential chains layers.
type Sequential = nn.Sequential

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}

// Loss functions

// MSELoss computes the mean squared error.
func MSELoss(predictions, targets *tensor.Array) float64 {
	return nn.MSELoss(predictions, targets)
}

// MSELossGrad returns the gradient of MSELoss with respect to predictions.
func MSELossGrad(predictions, targets *tensor.Array) *tensor.Array {
	return nn.MSELossGrad(predictions, targets)
}

// Initialization

// Xavier draws weights from the Xavier (Glorot) uniform distribution.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Array {
	return nn.Xavier(fanIn, fanOut, shape, rng)
}

// Zeros creates a float32 array filled with zeros.
func Zeros(shape tensor.Shape) *tensor.Array {
	return nn.Zeros(shape)
}
