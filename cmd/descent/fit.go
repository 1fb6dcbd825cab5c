package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/descent/nn"
	"github.com/born-ml/descent/optim"
	"github.com/born-ml/descent/tensor"
)

// fitOptions configures the fit command.
type fitOptions struct {
	rule      ruleFlags
	sched     schedulerFlags
	steps     int
	samples   int
	features  int
	seed      int64
	logEvery  int
	epochSize int
}

func newFitCmd() *cobra.Command {
	var o fitOptions

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a linear regression on synthetic data",
		Long: `Fit draws a random linear target y = x·w + b, then trains a linear layer
on it with the selected update rule and reports the mean squared error.`,
		Example: `  descent fit --rule adam --lr 0.05 --steps 300
  descent fit --rule sgd --lr 0.1 --momentum 0.9 --scheduler step --step-size 5 --gamma 0.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFit(cmd, &o)
		},
	}

	fs := cmd.Flags()
	o.rule.bind(fs)
	o.sched.bind(fs, "none")
	fs.IntVar(&o.steps, "steps", 200, "Number of optimizer steps")
	fs.IntVar(&o.samples, "samples", 64, "Number of synthetic samples")
	fs.IntVar(&o.features, "features", 4, "Number of input features")
	fs.Int64Var(&o.seed, "seed", 1, "Random seed")
	fs.IntVar(&o.logEvery, "log-every", 20, "Print the loss every N steps (0 prints only the result)")
	fs.IntVar(&o.epochSize, "epoch-size", 10, "Optimizer steps per scheduler epoch")
	return cmd
}

func runFit(cmd *cobra.Command, o *fitOptions) error {
	switch {
	case o.steps <= 0:
		return errors.Errorf("steps must be positive, got %d", o.steps)
	case o.samples <= 0 || o.features <= 0:
		return errors.Errorf("samples and features must be positive, got %d and %d", o.samples, o.features)
	case o.epochSize <= 0:
		return errors.Errorf("epoch size must be positive, got %d", o.epochSize)
	}

	logger := slog.Default().With("component", "fit")
	rng := rand.New(rand.NewSource(o.seed))
	x, y := syntheticData(rng, o.samples, o.features)

	model := nn.NewLinear(o.features, 1, rng)
	opt, err := o.rule.build(logger)
	if err != nil {
		return err
	}

	var sched optim.Scheduler
	if o.sched.enabled() {
		if sched, err = o.sched.build(opt); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	first := nn.MSELoss(model.Forward(x), y)
	logger.Info("training", "rule", o.rule.name, "samples", o.samples, "features", o.features, "initial_loss", first)

	for step := 1; step <= o.steps; step++ {
		_, grads := model.MSEGradients(x, y)
		if err := opt.Update(model, grads); err != nil {
			return errors.Wrapf(err, "step %d", step)
		}
		if sched != nil && step%o.epochSize == 0 {
			sched.Step()
		}
		if o.logEvery > 0 && step%o.logEvery == 0 {
			loss := nn.MSELoss(model.Forward(x), y)
			fmt.Fprintf(out, "step %d  loss %.6g  lr %s\n", step, loss, formatLR(float64(opt.LearningRate())))
		}
	}

	final := nn.MSELoss(model.Forward(x), y)
	fmt.Fprintf(out, "rule %s  initial loss %.6g  final loss %.6g\n", o.rule.name, first, final)
	return nil
}

// syntheticData draws x from a standard normal and y = x·w + b for a random
// w and b.
func syntheticData(rng *rand.Rand, samples, features int) (x, y *tensor.Array) {
	w := make([]float32, features)
	for i := range w {
		w[i] = float32(rng.NormFloat64())
	}
	b := float32(rng.NormFloat64())

	xs := make([]float32, samples*features)
	ys := make([]float32, samples)
	for i := range samples {
		ys[i] = b
		for j := range features {
			v := float32(rng.NormFloat64())
			xs[i*features+j] = v
			ys[i] += v * w[j]
		}
	}
	return tensor.FromFloat32(xs, tensor.Shape{samples, features}), tensor.FromFloat32(ys, tensor.Shape{samples, 1})
}
