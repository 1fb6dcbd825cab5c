package optim_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/descent/internal/optim"
	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// vec creates a float32 vector.
func vec(v ...float32) *tensor.Array {
	return tensor.FromFloat32(v, tensor.Shape{len(v)})
}

// randn creates a float32 array of the given shape with normal samples.
func randn(rng *rand.Rand, shape ...int) *tensor.Array {
	s := tensor.Shape(shape)
	data := make([]float32, s.NumElements())
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return tensor.FromFloat32(data, s)
}

// dict builds a flat dict tree from alternating keys and arrays.
func dict(kv ...any) *tree.Tree {
	d := tree.NewDict()
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i].(string), tree.NewLeaf(kv[i+1].(*tensor.Array)))
	}
	return d
}

// leafAt returns the array at path, failing the test if it is missing.
func leafAt(t *testing.T, tr *tree.Tree, path string) *tensor.Array {
	t.Helper()
	node, ok := tr.Get(path)
	require.True(t, ok, "no node at %q", path)
	require.True(t, node.IsLeaf(), "node at %q is a %s", path, node.Kind())
	return node.Value()
}

// zerosLike returns a tree shaped like tr with zero leaves.
func zerosLike(t *testing.T, tr *tree.Tree) *tree.Tree {
	t.Helper()
	out, err := tree.Map(func(_ string, l []*tensor.Array) (*tensor.Array, error) {
		return tensor.ZerosLike(l[0]), nil
	}, tr)
	require.NoError(t, err)
	return out
}

type ruleCase struct {
	name string
	new  func() (*optim.Optimizer, error)
}

// allRules constructs every built-in rule without weight decay.
func allRules() []ruleCase {
	return []ruleCase{
		{"sgd", func() (*optim.Optimizer, error) { return optim.NewSGD(optim.SGDConfig{LearningRate: 0.1}) }},
		{"sgd momentum", func() (*optim.Optimizer, error) {
			return optim.NewSGD(optim.SGDConfig{LearningRate: 0.1, Momentum: 0.9, Nesterov: true})
		}},
		{"rmsprop", func() (*optim.Optimizer, error) { return optim.NewRMSprop(optim.DefaultRMSpropConfig()) }},
		{"adagrad", func() (*optim.Optimizer, error) { return optim.NewAdagrad(optim.DefaultAdagradConfig()) }},
		{"adadelta", func() (*optim.Optimizer, error) { return optim.NewAdaDelta(optim.DefaultAdaDeltaConfig()) }},
		{"adam", func() (*optim.Optimizer, error) { return optim.NewAdam(optim.DefaultAdamConfig()) }},
		{"adamw", func() (*optim.Optimizer, error) {
			cfg := optim.DefaultAdamWConfig()
			cfg.WeightDecay = 0
			return optim.NewAdamW(cfg)
		}},
		{"adamax", func() (*optim.Optimizer, error) { return optim.NewAdamax(optim.DefaultAdamaxConfig()) }},
		{"lion", func() (*optim.Optimizer, error) { return optim.NewLion(optim.DefaultLionConfig()) }},
		{"adafactor", func() (*optim.Optimizer, error) { return optim.NewAdafactor(optim.DefaultAdafactorConfig()) }},
		{"adafactor beta1", func() (*optim.Optimizer, error) {
			cfg := optim.DefaultAdafactorConfig()
			cfg.Beta1 = 0.9
			return optim.NewAdafactor(cfg)
		}},
	}
}

// statelessRule is plain gradient descent without any per-parameter state.
type statelessRule struct{}

func (statelessRule) Name() string { return "stateless" }

func (statelessRule) InitSingle(*tensor.Array, *optim.Slot) {}

func (statelessRule) ApplySingle(grad, param *tensor.Array, _ *optim.Slot, lr float64) *tensor.Array {
	return param.Sub(grad.MulScalar(lr))
}

// fakeModel holds its parameters in a tree.
type fakeModel struct {
	params *tree.Tree
}

func (m *fakeModel) Parameters() *tree.Tree { return m.params }

func (m *fakeModel) Update(params *tree.Tree) error {
	merged, err := tree.Merge(m.params, params)
	if err != nil {
		return err
	}
	m.params = merged
	return nil
}
