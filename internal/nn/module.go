// Package nn implements the model side of training for the descent engine.
//
// This package provides:
//   - Module interface: models that expose their parameters as a tree
//   - Params: a parameter tree with per-path freezing
//   - Linear: fully connected layer with analytic MSE gradients
//   - Initializers: Xavier/Glorot uniform, zeros
//
// Design inspired by PyTorch's nn.Module, with parameters held in nested
// trees so an optimizer can walk them without knowing the model.
package nn

import (
	"github.com/born-ml/descent/internal/tree"
)

// Module is the base interface for all trainable models.
//
// Every module must implement:
//   - Parameters: the full parameter tree
//   - TrainableParameters: the subset that should receive gradients
//   - Update: write back a (possibly partial) parameter tree
//
// Modules satisfy optim.Model, so an optimizer can update them in place:
//
//	grads := model.Gradients(batch)
//	err := opt.Update(model, grads)
type Module interface {
	// Parameters returns every parameter, frozen or not.
	Parameters() *tree.Tree

	// TrainableParameters returns the parameters that are not frozen.
	TrainableParameters() *tree.Tree

	// Update replaces the parameters found in params.
	//
	// params may be partial; positions it does not mention are unchanged.
	Update(params *tree.Tree) error
}
