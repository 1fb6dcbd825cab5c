// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides small neural network building blocks whose parameters
// are trees that the optimizers in package optim can update.
//
// # Overview
//
// This package contains:
//   - Params: a parameter tree with freezing
//   - Linear: a fully connected layer with analytic MSE gradients
//   - Sequential: a container chaining layers
//   - MSELoss and Xavier initialization
//
// # Basic Usage
//
//	layer := nn.NewLinear(1, 1, rand.New(rand.NewSource(1)))
//	opt, _ := optim.NewSGD(optim.SGDConfig{LearningRate: 0.1})
//
//	for range 100 {
//	    loss, grads := layer.MSEGradients(x, y)
//	    if err := opt.Update(layer, grads); err != nil {
//	        return err
//	    }
//	}
//
// # Freezing
//
// Frozen parameters are left out of TrainableParameters and of the gradient
// trees a layer produces, so the optimizer never touches them:
//
//	_ = layer.Freeze(nn.BiasKey)
package nn
