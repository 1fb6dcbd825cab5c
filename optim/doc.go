// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers for nested parameter trees.
//
// # Overview
//
// This package contains:
//   - Optimizer: walks parameter and gradient trees, keeps per-parameter
//     state and applies an update rule to every leaf
//   - Update rules: SGD, RMSprop, Adagrad, AdaDelta, Adam, AdamW, Adamax,
//     Lion and Adafactor
//   - Learning rate schedulers: StepLR, ExponentialLR, MultiStepLR, LambdaLR,
//     PolynomialLR, CosineAnnealingLR and SequentialLR
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/descent/nn"
//	    "github.com/born-ml/descent/optim"
//	)
//
//	func main() {
//	    model := nn.NewLinear(784, 10, rand.New(rand.NewSource(1)))
//
//	    opt, err := optim.NewAdam(optim.DefaultAdamConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for epoch := range 10 {
//	        loss, grads := model.MSEGradients(x, y)
//	        if err := opt.Update(model, grads); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Gradients and Parameters
//
// Gradients are trees shaped like the parameters. A gradient tree may cover
// only part of the parameters; the optimizer then updates that part and
// leaves the rest alone. Every gradient must match the shape of its
// parameter, otherwise ApplyGradients fails with ErrShapeMismatch and no
// state changes.
//
// # State
//
// State mirrors the parameter tree: every parameter owns a dict of named
// arrays such as "m" and "v", plus a "step" counter for rules that count
// steps. The learning rate is stored at the top level under
// "learning_rate". State and StateDict export it; SetState and
// LoadStateDict restore it.
//
//	saved := opt.StateDict() // map["weight.m"], map["weight.step"], ...
//	err := restored.LoadStateDict(saved)
//
// # Schedulers
//
// A scheduler is bound to an optimizer and rewrites its learning rate each
// time Step is called:
//
//	sched, err := optim.NewCosineAnnealingLR(opt, optim.CosineAnnealingLRConfig{TMax: 100})
//	for epoch := range 100 {
//	    train(opt)
//	    sched.Step()
//	}
//
// SequentialLR chains schedulers, switching at milestone epochs:
//
//	warmup, _ := optim.NewLambdaLR(opt, func(e int) float64 { return float64(e+1) / 5 })
//	decay, _ := optim.NewExponentialLR(opt, 0.9)
//	sched, err := optim.NewSequentialLR([]optim.Scheduler{warmup, decay}, []int{5})
package optim
