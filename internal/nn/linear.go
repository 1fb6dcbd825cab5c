package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// Parameter names used by Linear.
const (
	WeightKey = "weight"
	BiasKey   = "bias"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input array with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output array with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	layer := nn.NewLinear(784, 128, rand.New(rand.NewSource(1)))
//
//	output := layer.Forward(input) // shape: [32, 128]
//	loss, grads := layer.MSEGradients(input, targets)
//	err := opt.Update(layer, grads)
type Linear struct {
	*Params
	inFeatures  int
	outFeatures int
}

// NewLinear creates a new Linear layer.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng)
	bias := Zeros(tensor.Shape{outFeatures})

	return &Linear{
		Params: NewParams(tree.NewDict().
			Set(WeightKey, tree.NewLeaf(weight)).
			Set(BiasKey, tree.NewLeaf(bias))),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
}

// Weight returns the weight matrix.
func (l *Linear) Weight() *tensor.Array {
	return l.param(WeightKey)
}

// Bias returns the bias vector.
func (l *Linear) Bias() *tensor.Array {
	return l.param(BiasKey)
}

func (l *Linear) param(key string) *tensor.Array {
	node, _ := l.Parameters().Get(key)
	return node.Value()
}

// Forward computes the output of the linear layer.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input *tensor.Array) *tensor.Array {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	// [batch, in] @ [in, out] = [batch, out]
	output := input.MatMul(l.Weight().Transpose2D())
	return output.Add(l.Bias().Reshape(1, l.outFeatures))
}

// MSEGradients runs a forward pass and returns the MSE loss together with its
// gradients for the trainable parameters.
//
//	dL/dy = 2 * (y - targets) / N
//	dL/dW = (dL/dy).T @ x
//	dL/db = sum over the batch of dL/dy
func (l *Linear) MSEGradients(input, targets *tensor.Array) (float64, *tree.Tree) {
	pred := l.Forward(input)
	loss := MSELoss(pred, targets)

	dPred := MSELossGrad(pred, targets)
	batch := float64(inputRows(input))
	grads := tree.NewDict().
		Set(WeightKey, tree.NewLeaf(dPred.Transpose2D().MatMul(input))).
		Set(BiasKey, tree.NewLeaf(dPred.MeanAxis(0, false).MulScalar(batch)))

	return loss, tree.Filter(grads, func(path string) bool { return !l.IsFrozen(path) })
}

func inputRows(input *tensor.Array) int {
	return input.Shape()[0]
}
