package optim_test

import (
	"bytes"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/descent/internal/optim"
	"github.com/born-ml/descent/internal/parallel"
	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// nested builds {"encoder": {"weight", "bias"}, "layers": [{"w"}, {"w"}]}.
func nested(rng *rand.Rand) *tree.Tree {
	return tree.NewDict().
		Set("encoder", tree.NewDict().
			Set("weight", tree.NewLeaf(randn(rng, 4, 3))).
			Set("bias", tree.NewLeaf(randn(rng, 3)))).
		Set("layers", tree.NewList(
			tree.NewDict().Set("w", tree.NewLeaf(randn(rng, 3, 3))),
			tree.NewDict().Set("w", tree.NewLeaf(randn(rng, 3))),
		))
}

func TestApplyGradients_LazyInit(t *testing.T) {
	opt, err := optim.NewAdam(optim.DefaultAdamConfig())
	require.NoError(t, err)
	assert.False(t, opt.Initialized())

	state := opt.State()
	assert.Equal(t, []string{optim.LearningRateKey}, state.Keys())

	rng := rand.New(rand.NewSource(1))
	params := nested(rng)
	out, err := opt.ApplyGradients(nested(rng), params)
	require.NoError(t, err)
	assert.True(t, opt.Initialized())

	assert.Equal(t, params.Paths(), out.Paths())
	layers, _ := out.Get("layers")
	assert.Equal(t, tree.KindList, layers.Kind())

	assert.Equal(t, []string{
		"learning_rate",
		"encoder.weight.m", "encoder.weight.v",
		"encoder.bias.m", "encoder.bias.v",
		"layers.0.w.m", "layers.0.w.v",
		"layers.1.w.m", "layers.1.w.v",
	}, opt.State().Paths())
}

func TestApplyGradients_SupersetParameters(t *testing.T) {
	opt, err := optim.NewSGD(optim.SGDConfig{LearningRate: 0.5})
	require.NoError(t, err)

	params := dict("a", vec(1, 1), "b", vec(2, 2))
	out, err := opt.ApplyGradients(dict("a", vec(1, 2)), params)
	require.NoError(t, err)

	// Only the parameters that received gradients are returned.
	assert.Equal(t, []string{"a"}, out.Paths())
	assert.Equal(t, []float32{0.5, 0}, leafAt(t, out, "a").Float32s())
	assert.Equal(t, []string{"learning_rate", "a.v"}, opt.State().Paths())
}

func TestApplyGradients_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		init   *tree.Tree
		grads  *tree.Tree
		params *tree.Tree
	}{
		{
			name:   "missing parameter",
			grads:  dict("a", vec(1), "c", vec(1)),
			params: dict("a", vec(1), "b", vec(1)),
		},
		{
			name:   "gradient shape",
			grads:  dict("a", vec(1, 2)),
			params: dict("a", vec(1)),
		},
		{
			name:   "parameter is a container",
			grads:  dict("a", vec(1)),
			params: tree.NewDict().Set("a", dict("x", vec(1))),
		},
		{
			name:   "missing state",
			init:   dict("a", vec(1)),
			grads:  dict("b", vec(1)),
			params: dict("a", vec(1), "b", vec(1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := optim.NewSGD(optim.SGDConfig{Momentum: 0.9})
			require.NoError(t, err)
			if tt.init != nil {
				require.NoError(t, opt.Init(tt.init))
			}

			_, err = opt.ApplyGradients(tt.grads, tt.params)
			require.ErrorIs(t, err, optim.ErrShapeMismatch)
		})
	}
}

func TestApplyGradients_FailureLeavesStateUntouched(t *testing.T) {
	opt, err := optim.NewSGD(optim.SGDConfig{LearningRate: 0.1, Momentum: 0.9})
	require.NoError(t, err)

	// "b" carries state of the wrong shape.
	state := tree.NewDict().
		Set(optim.LearningRateKey, tree.NewLeaf(tensor.Scalar(0.1, tensor.Float32))).
		Set("a", dict("v", vec(7, 7))).
		Set("b", dict("v", vec(7, 7, 7)))
	require.NoError(t, opt.SetState(state))

	params := dict("a", vec(1, 1), "b", vec(1, 1))
	_, err = opt.ApplyGradients(dict("a", vec(1, 1), "b", vec(1, 1)), params)
	require.ErrorIs(t, err, optim.ErrShapeMismatch)

	assert.Equal(t, []float32{7, 7}, leafAt(t, opt.State(), "a.v").Float32s())

	// Wrong key set for the rule.
	require.NoError(t, opt.SetState(tree.NewDict().Set("a", dict("m", vec(0, 0)))))
	_, err = opt.ApplyGradients(dict("a", vec(1, 1)), params)
	require.ErrorIs(t, err, optim.ErrShapeMismatch)
}

func TestInit(t *testing.T) {
	opt, err := optim.NewAdam(optim.DefaultAdamConfig())
	require.NoError(t, err)

	err = opt.Init(tree.NewLeaf(vec(1)))
	require.ErrorIs(t, err, optim.ErrInvalidArgument)

	err = opt.Init(dict(optim.LearningRateKey, vec(1)))
	require.ErrorIs(t, err, optim.ErrInvalidArgument)

	require.NoError(t, opt.Init(dict("a", vec(1, 2))))
	assert.True(t, opt.Initialized())
	assert.Equal(t, []float32{0, 0}, leafAt(t, opt.State(), "a.m").Float32s())
}

func TestStateRoundTrip(t *testing.T) {
	for _, rc := range allRules() {
		t.Run(rc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			params := nested(rng)

			original, err := rc.new()
			require.NoError(t, err)
			for range 3 {
				params, err = original.ApplyGradients(nested(rng), params)
				require.NoError(t, err)
			}

			restored, err := rc.new()
			require.NoError(t, err)
			restored.SetLearningRate(123)
			require.NoError(t, restored.SetState(original.State()))
			assert.Equal(t, original.LearningRate(), restored.LearningRate())

			grads := nested(rng)
			want, err := original.ApplyGradients(grads, params)
			require.NoError(t, err)
			got, err := restored.ApplyGradients(grads, params)
			require.NoError(t, err)

			for _, e := range want.Leaves() {
				assert.True(t, e.Value.Equal(leafAt(t, got, e.Path)), "%s differs", e.Path)
			}
			assert.Equal(t, original.State().Paths(), restored.State().Paths())
		})
	}
}

func TestStateRoundTrip_StatelessRule(t *testing.T) {
	params := tree.NewDict().
		Set("w", tree.NewLeaf(vec(1, 2))).
		Set("empty", tree.NewDict())

	original := optim.New(statelessRule{}, 0.5)
	params, err := original.ApplyGradients(dict("w", vec(1, 1)), params)
	require.NoError(t, err)
	assert.Equal(t, []string{"learning_rate", "w"}, original.State().Keys())

	restored := optim.New(statelessRule{}, 0.1)
	require.NoError(t, restored.SetState(original.State()))
	assert.Equal(t, float32(0.5), restored.LearningRate())

	out, err := restored.ApplyGradients(dict("w", vec(1, 1)), params)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, leafAt(t, out, "w").Float32s())

	// A state with an empty container beside a stateless parameter still loads.
	state := original.State().Set("nested", tree.NewDict().Set("inner", tree.NewDict()))
	require.NoError(t, restored.SetState(state))
	_, err = restored.ApplyGradients(dict("w", vec(1, 1)), params)
	require.NoError(t, err)
}

func TestStateDict_KeyOrderAfterLoad(t *testing.T) {
	opt, err := optim.NewAdam(optim.DefaultAdamConfig())
	require.NoError(t, err)
	require.NoError(t, opt.LoadStateDict(map[string]*tensor.Array{
		"w.v": vec(0, 0),
		"w.m": vec(0, 0),
	}))

	assert.Equal(t, []string{"learning_rate", "w.m", "w.v"}, opt.State().Paths())
	_, err = opt.ApplyGradients(dict("w", vec(1, 1)), dict("w", vec(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, []string{"learning_rate", "w.m", "w.v"}, opt.State().Paths())

	// Entries load in sorted order and take the rule's order once checked.
	af, err := optim.NewAdafactor(optim.DefaultAdafactorConfig())
	require.NoError(t, err)
	require.NoError(t, af.LoadStateDict(map[string]*tensor.Array{
		"w.exp_avg_sq": vec(0, 0),
		"w.step":       tensor.Scalar(0, tensor.Float64),
	}))
	assert.Equal(t, []string{"learning_rate", "w.exp_avg_sq", "w.step"}, af.State().Paths())
	_, err = af.ApplyGradients(dict("w", vec(1, 1)), dict("w", vec(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"learning_rate", "w.step", "w.exp_avg_sq"}, af.State().Paths())
}

func TestStateDictRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	params := nested(rng)

	cfg := optim.DefaultAdafactorConfig()
	cfg.Beta1 = 0.9
	original, err := optim.NewAdafactor(cfg)
	require.NoError(t, err)
	params, err = original.ApplyGradients(nested(rng), params)
	require.NoError(t, err)

	sd := original.StateDict()
	assert.Contains(t, sd, "encoder.weight.exp_avg_sq_row")
	assert.Contains(t, sd, "layers.1.w.exp_avg_sq")
	assert.Equal(t, 1.0, sd["layers.0.w.step"].Item())

	restored, err := optim.NewAdafactor(cfg)
	require.NoError(t, err)
	require.NoError(t, restored.LoadStateDict(sd))

	grads := nested(rng)
	want, err := original.ApplyGradients(grads, params)
	require.NoError(t, err)
	got, err := restored.ApplyGradients(grads, params)
	require.NoError(t, err)
	for _, e := range want.Leaves() {
		assert.True(t, e.Value.Equal(leafAt(t, got, e.Path)), "%s differs", e.Path)
	}
	assert.Equal(t, 2.0, leafAt(t, restored.State(), "layers.0.w.step").Item())
	if diff := cmp.Diff(slices.Sorted(maps.Keys(original.StateDict())), slices.Sorted(maps.Keys(restored.StateDict()))); diff != "" {
		t.Errorf("state dict keys mismatch (-want +got):\n%s", diff)
	}

	err = restored.LoadStateDict(map[string]*tensor.Array{"w.bogus": vec(1)})
	require.ErrorIs(t, err, optim.ErrInvalidArgument)
}

func TestSetState_Malformed(t *testing.T) {
	opt, err := optim.NewAdam(optim.DefaultAdamConfig())
	require.NoError(t, err)

	tests := []struct {
		name  string
		state *tree.Tree
	}{
		{"leaf root", tree.NewLeaf(vec(1))},
		{"leaf parameter", dict("w", vec(1))},
		{"unknown entry", tree.NewDict().Set("w", dict("bogus", vec(1)))},
		{"fractional step", tree.NewDict().Set("w", dict("step", tensor.Scalar(1.5, tensor.Float64)))},
		{"learning rate not scalar", dict(optim.LearningRateKey, vec(1, 2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, opt.SetState(tt.state), optim.ErrInvalidArgument)
		})
	}
	assert.False(t, opt.Initialized())
}

func TestLearningRate(t *testing.T) {
	opt, err := optim.NewSGD(optim.DefaultSGDConfig())
	require.NoError(t, err)
	assert.Equal(t, float32(0.01), opt.LearningRate())

	zero, err := optim.NewSGD(optim.SGDConfig{})
	require.NoError(t, err)
	assert.Zero(t, zero.LearningRate())

	opt.SetLearningRate(0.1)
	assert.Equal(t, float32(0.1), opt.LearningRate())
	assert.Equal(t, float64(float32(0.1)), leafAt(t, opt.State(), optim.LearningRateKey).Item())
	assert.Equal(t, "sgd", opt.Rule().Name())
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	params := tree.NewDict()
	grads := tree.NewDict()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		params.Set(name, tree.NewLeaf(randn(rng, 5, 4)))
		grads.Set(name, tree.NewLeaf(randn(rng, 5, 4)))
	}

	cfg := optim.DefaultAdamConfig()
	cfg.LearningRate = 0.01
	seq, err := optim.NewAdam(cfg)
	require.NoError(t, err)
	par, err := optim.NewAdam(cfg,
		optim.WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinItems: 1}))
	require.NoError(t, err)

	outSeq, outPar := params, params
	for range 3 {
		outSeq, err = seq.ApplyGradients(grads, outSeq)
		require.NoError(t, err)
		outPar, err = par.ApplyGradients(grads, outPar)
		require.NoError(t, err)
	}

	assert.Equal(t, outSeq.Paths(), outPar.Paths())
	for _, e := range outSeq.Leaves() {
		assert.True(t, e.Value.Equal(leafAt(t, outPar, e.Path)), "%s differs", e.Path)
	}
}

func TestUpdate(t *testing.T) {
	opt, err := optim.NewSGD(optim.SGDConfig{LearningRate: 1})
	require.NoError(t, err)

	model := &fakeModel{params: tree.NewDict().
		Set("layer", dict("weight", vec(1, 2), "bias", vec(3)))}

	grads := tree.NewDict().Set("layer", dict("weight", vec(1, 1)))
	require.NoError(t, opt.Update(model, grads))

	assert.Equal(t, []float32{0, 1}, leafAt(t, model.params, "layer.weight").Float32s())
	assert.Equal(t, []float32{3}, leafAt(t, model.params, "layer.bias").Float32s())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opt, err := optim.NewLion(optim.DefaultLionConfig(), optim.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, opt.Init(dict("w", vec(1))))

	assert.Contains(t, buf.String(), "optimizer state initialized")
	assert.Contains(t, buf.String(), "rule=lion")
}
