package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/descent/internal/optim"
)

func newSGD(t *testing.T, lr float64) *optim.Optimizer {
	t.Helper()
	opt, err := optim.NewSGD(optim.SGDConfig{LearningRate: lr})
	require.NoError(t, err)
	return opt
}

func TestStepLR(t *testing.T) {
	opt := newSGD(t, 1.0)
	sched, err := optim.NewStepLR(opt, optim.StepLRConfig{StepSize: 10, Gamma: 0.5})
	require.NoError(t, err)

	// Construction steps to epoch -1, which floors to the previous period.
	assert.Equal(t, -1, sched.LastEpoch())
	assert.InDelta(t, 2.0, sched.GetLR(), 1e-12)
	assert.Equal(t, 1.0, sched.BaseLR())

	for _, tt := range []struct {
		epoch int
		want  float64
	}{
		{0, 1.0}, {9, 1.0}, {10, 0.5}, {19, 0.5}, {20, 0.25},
	} {
		sched.StepTo(tt.epoch)
		assert.InDelta(t, tt.want, sched.GetLR(), 1e-12, "epoch %d", tt.epoch)
		assert.Equal(t, float32(tt.want), opt.LearningRate(), "epoch %d", tt.epoch)
	}
}

func TestScheduler_Step(t *testing.T) {
	opt := newSGD(t, 1.0)
	sched, err := optim.NewExponentialLR(opt, 0.5)
	require.NoError(t, err)

	sched.Step()
	assert.Equal(t, 0, sched.LastEpoch())
	assert.Equal(t, float32(1), opt.LearningRate())

	sched.Step()
	sched.Step()
	assert.Equal(t, 2, sched.LastEpoch())
	assert.Equal(t, float32(0.25), opt.LearningRate())
	assert.Same(t, opt, sched.Optimizer())

	resumed, err := optim.NewExponentialLR(newSGD(t, 1.0), 0.5, optim.WithLastEpoch(4))
	require.NoError(t, err)
	assert.Equal(t, 4, resumed.LastEpoch())
	resumed.Step()
	assert.InDelta(t, math.Pow(0.5, 5), resumed.GetLR(), 1e-12)
}

func TestSchedulerPolicies(t *testing.T) {
	tests := []struct {
		name  string
		build func(*optim.Optimizer) (optim.Scheduler, error)
		want  map[int]float64
	}{
		{
			name: "multistep unsorted milestones",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewMultiStepLR(o, optim.MultiStepLRConfig{Milestones: []int{30, 10}, Gamma: 0.1})
			},
			want: map[int]float64{0: 1, 9: 1, 10: 0.1, 29: 0.1, 30: 0.01, 100: 0.01},
		},
		{
			name: "multistep zero gamma",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewMultiStepLR(o, optim.MultiStepLRConfig{Milestones: []int{5}, Gamma: 0})
			},
			want: map[int]float64{0: 1, 4: 1, 5: 0, 9: 0},
		},
		{
			name: "polynomial zero power",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewPolynomialLR(o, optim.PolynomialLRConfig{MaxDecaySteps: 10, EndLR: 0.1})
			},
			want: map[int]float64{0: 1, 5: 1, 9: 1},
		},
		{
			name: "lambda",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewLambdaLR(o, func(e int) float64 { return 1 / float64(e+1) })
			},
			want: map[int]float64{0: 1, 1: 0.5, 3: 0.25},
		},
		{
			name: "polynomial",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewPolynomialLR(o, optim.PolynomialLRConfig{MaxDecaySteps: 10, EndLR: 0.1, Power: 2})
			},
			want: map[int]float64{0: 1, 5: 0.325, 10: 0.1, 20: 0.1},
		},
		{
			name: "cosine annealing",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewCosineAnnealingLR(o, optim.CosineAnnealingLRConfig{TMax: 10, EtaMin: 0.2})
			},
			want: map[int]float64{0: 1, 5: 0.6, 10: 0.2, 20: 1},
		},
		{
			name: "custom policy",
			build: func(o *optim.Optimizer) (optim.Scheduler, error) {
				return optim.NewLRScheduler(o, func(base float64, epoch int) float64 {
					return base + float64(epoch)
				})
			},
			want: map[int]float64{0: 1, 2: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := tt.build(newSGD(t, 1.0))
			require.NoError(t, err)
			for epoch, want := range tt.want {
				sched.StepTo(epoch)
				assert.InDelta(t, want, sched.GetLR(), 1e-9, "epoch %d", epoch)
			}
		})
	}
}

func TestSchedulerValidation(t *testing.T) {
	opt := newSGD(t, 1.0)

	_, err := optim.NewStepLR(nil, optim.StepLRConfig{StepSize: 1})
	require.ErrorIs(t, err, optim.ErrInvalidArgument)

	_, err = optim.NewStepLR(opt, optim.StepLRConfig{})
	require.ErrorIs(t, err, optim.ErrInvalidConfig)

	_, err = optim.NewPolynomialLR(opt, optim.PolynomialLRConfig{})
	require.ErrorIs(t, err, optim.ErrInvalidConfig)

	_, err = optim.NewCosineAnnealingLR(opt, optim.CosineAnnealingLRConfig{TMax: -1})
	require.ErrorIs(t, err, optim.ErrInvalidConfig)

	_, err = optim.NewLambdaLR(opt, nil)
	require.ErrorIs(t, err, optim.ErrInvalidConfig)

	// Failed construction leaves the rate alone.
	assert.Equal(t, float32(1), opt.LearningRate())
}

func TestSequentialLR(t *testing.T) {
	opt := newSGD(t, 1.0)

	first, err := optim.NewStepLR(opt, optim.StepLRConfig{StepSize: 2, Gamma: 0.5})
	require.NoError(t, err)
	second, err := optim.NewExponentialLR(opt, 0.9)
	require.NoError(t, err)

	sched, err := optim.NewSequentialLR([]optim.Scheduler{first, second}, []int{5})
	require.NoError(t, err)
	assert.Same(t, opt, sched.Optimizer())

	for epoch := 0; epoch <= 10; epoch++ {
		sched.Step()
		require.Equal(t, epoch, sched.LastEpoch())

		var want float64
		if epoch < 5 {
			want = first.BaseLR() * math.Pow(0.5, float64(epoch/2))
			assert.Same(t, first, sched.Current(), "epoch %d", epoch)
		} else {
			want = second.BaseLR() * math.Pow(0.9, float64(epoch))
			assert.Same(t, second, sched.Current(), "epoch %d", epoch)
		}
		assert.InDelta(t, want, sched.GetLR(), 1e-9, "epoch %d", epoch)
		assert.InDelta(t, want, float64(opt.LearningRate()), 1e-6, "epoch %d", epoch)
	}
}

func TestSequentialLR_Validation(t *testing.T) {
	opt := newSGD(t, 1.0)
	a, err := optim.NewExponentialLR(opt, 0.9)
	require.NoError(t, err)
	b, err := optim.NewExponentialLR(opt, 0.8)
	require.NoError(t, err)
	other, err := optim.NewExponentialLR(newSGD(t, 1.0), 0.8)
	require.NoError(t, err)

	_, err = optim.NewSequentialLR(nil, nil)
	require.ErrorIs(t, err, optim.ErrInvalidArgument)

	_, err = optim.NewSequentialLR([]optim.Scheduler{a, other}, []int{3})
	require.ErrorIs(t, err, optim.ErrInvalidArgument)

	_, err = optim.NewSequentialLR([]optim.Scheduler{a, b}, []int{3, 6})
	require.ErrorIs(t, err, optim.ErrInvalidConfig)

	c, err := optim.NewExponentialLR(opt, 0.7)
	require.NoError(t, err)
	_, err = optim.NewSequentialLR([]optim.Scheduler{a, b, c}, []int{6, 3})
	require.ErrorIs(t, err, optim.ErrInvalidConfig)
}

func TestSchedulerDrivesUpdates(t *testing.T) {
	opt := newSGD(t, 1.0)
	sched, err := optim.NewMultiStepLR(opt, optim.MultiStepLRConfig{Milestones: []int{1}, Gamma: 0.5})
	require.NoError(t, err)

	params := dict("w", vec(0))
	grads := dict("w", vec(1))

	var got []float32
	for range 3 {
		sched.Step()
		params, err = opt.ApplyGradients(grads, params)
		require.NoError(t, err)
		got = append(got, leafAt(t, params, "w").Float32s()[0])
	}
	assert.Equal(t, []float32{-1, -1.5, -2}, got)
}
