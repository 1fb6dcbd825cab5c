package nn

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// LayersKey is the parameter key holding a Sequential's layers.
const LayersKey = "layers"

// Layer is a module with a forward pass.
type Layer interface {
	Module
	Forward(input *tensor.Array) *tensor.Array
}

// Sequential is a container module that chains multiple layers together.
//
// Each layer's output becomes the next layer's input. Parameters are exposed
// under LayersKey as a list with one subtree per layer, so paths look like
// "layers.0.weight", "layers.1.bias".
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, rng),
//	    nn.NewLinear(128, 10, rng),
//	)
//
//	output := model.Forward(input)
type Sequential struct {
	layers []Layer
}

// NewSequential creates a new Sequential container.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward applies all layers in sequence.
func (s *Sequential) Forward(input *tensor.Array) *tensor.Array {
	output := input
	for _, layer := range s.layers {
		output = layer.Forward(output)
	}
	return output
}

// Parameters returns the parameters of every layer.
func (s *Sequential) Parameters() *tree.Tree {
	return s.collect(Layer.Parameters)
}

// TrainableParameters returns the trainable parameters of every layer.
// Layers without trainable parameters contribute an empty dict.
func (s *Sequential) TrainableParameters() *tree.Tree {
	return s.collect(Layer.TrainableParameters)
}

func (s *Sequential) collect(fn func(Layer) *tree.Tree) *tree.Tree {
	return tree.NewDict().Set(LayersKey, tree.NewList(lo.Map(s.layers, func(l Layer, _ int) *tree.Tree {
		return fn(l)
	})...))
}

// Update hands each item of params["layers"] to the matching layer.
func (s *Sequential) Update(params *tree.Tree) error {
	if params.Kind() == tree.KindDict && params.Len() == 0 {
		return nil
	}
	layers, ok := params.Child(LayersKey)
	if !ok || layers.Kind() != tree.KindList || layers.Len() > len(s.layers) {
		return errors.Wrapf(tree.ErrStructureMismatch, "nn: sequential of %d layers expects a %q list", len(s.layers), LayersKey)
	}
	for i, item := range layers.Items() {
		if err := s.layers[i].Update(item); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Len returns the number of layers in the sequence.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}
