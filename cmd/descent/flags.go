package main

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/born-ml/descent/optim"
)

// Rule and scheduler names accepted on the command line.
var (
	ruleNames      = []string{"sgd", "rmsprop", "adagrad", "adadelta", "adam", "adamw", "adamax", "lion", "adafactor"}
	schedulerNames = []string{"step", "exponential", "multistep", "polynomial", "cosine", "warmup-cosine"}
)

// ruleFlags selects and configures an update rule.
type ruleFlags struct {
	name        string
	lr          float64
	momentum    float64
	weightDecay float64
	nesterov    bool
	parallel    bool
}

func (f *ruleFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "rule", "sgd", "Update rule: "+strings.Join(ruleNames, ", "))
	fs.Float64Var(&f.lr, "lr", 0, "Learning rate (0 uses the rule's default; for adafactor, 0 selects relative steps)")
	fs.Float64Var(&f.momentum, "momentum", 0, "SGD momentum")
	fs.Float64Var(&f.weightDecay, "weight-decay", 0, "Weight decay for rules that support it")
	fs.BoolVar(&f.nesterov, "nesterov", false, "Use Nesterov momentum with SGD")
	fs.BoolVar(&f.parallel, "parallel", false, "Update parameters concurrently")
}

func (f *ruleFlags) build(logger *slog.Logger) (*optim.Optimizer, error) {
	opts := []optim.Option{optim.WithLogger(logger)}
	if f.parallel {
		opts = append(opts, optim.WithParallel(optim.DefaultParallelConfig()))
	}

	switch f.name {
	case "sgd":
		cfg := optim.DefaultSGDConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		cfg.Momentum = f.momentum
		cfg.WeightDecay = f.weightDecay
		cfg.Nesterov = f.nesterov
		return optim.NewSGD(cfg, opts...)
	case "rmsprop":
		cfg := optim.DefaultRMSpropConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		return optim.NewRMSprop(cfg, opts...)
	case "adagrad":
		cfg := optim.DefaultAdagradConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		return optim.NewAdagrad(cfg, opts...)
	case "adadelta":
		cfg := optim.DefaultAdaDeltaConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		return optim.NewAdaDelta(cfg, opts...)
	case "adam":
		cfg := optim.DefaultAdamConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		return optim.NewAdam(cfg, opts...)
	case "adamw":
		cfg := optim.DefaultAdamWConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		if f.weightDecay > 0 {
			cfg.WeightDecay = f.weightDecay
		}
		return optim.NewAdamW(cfg, opts...)
	case "adamax":
		cfg := optim.DefaultAdamaxConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		return optim.NewAdamax(cfg, opts...)
	case "lion":
		cfg := optim.DefaultLionConfig()
		cfg.LearningRate = f.rate(cfg.LearningRate)
		cfg.WeightDecay = f.weightDecay
		return optim.NewLion(cfg, opts...)
	case "adafactor":
		cfg := optim.DefaultAdafactorConfig()
		cfg.WeightDecay = f.weightDecay
		if f.lr != 0 {
			// An explicit rate means a fixed, unscaled step.
			cfg.LearningRate = f.lr
			cfg.RelativeStep = false
			cfg.ScaleParameter = false
		}
		return optim.NewAdafactor(cfg, opts...)
	default:
		return nil, errors.Errorf("unknown rule %q (want one of %s)", f.name, strings.Join(ruleNames, ", "))
	}
}

// rate returns the --lr value, or def when the flag was left at zero.
func (f *ruleFlags) rate(def float64) float64 {
	if f.lr != 0 {
		return f.lr
	}
	return def
}

// schedulerFlags selects and configures a learning rate scheduler.
type schedulerFlags struct {
	name       string
	stepSize   int
	gamma      float64
	milestones []int
	maxDecay   int
	endLR      float64
	power      float64
	tMax       int
	etaMin     float64
	warmup     int
}

func (f *schedulerFlags) bind(fs *pflag.FlagSet, def string) {
	fs.StringVar(&f.name, "scheduler", def, "Scheduler: "+strings.Join(schedulerNames, ", "))
	fs.IntVar(&f.stepSize, "step-size", 10, "Epochs between decays (step)")
	fs.Float64Var(&f.gamma, "gamma", 0.1, "Decay factor (step, exponential, multistep)")
	fs.IntSliceVar(&f.milestones, "milestones", []int{30, 80}, "Decay epochs (multistep)")
	fs.IntVar(&f.maxDecay, "max-decay-steps", 100, "Epochs until the end rate is reached (polynomial)")
	fs.Float64Var(&f.endLR, "end-lr", 0.0001, "Final learning rate (polynomial)")
	fs.Float64Var(&f.power, "power", 1, "Decay exponent (polynomial)")
	fs.IntVar(&f.tMax, "t-max", 100, "Half period in epochs (cosine)")
	fs.Float64Var(&f.etaMin, "eta-min", 0, "Minimum learning rate (cosine)")
	fs.IntVar(&f.warmup, "warmup", 5, "Linear warmup epochs (warmup-cosine)")
}

// enabled reports whether a scheduler was requested.
func (f *schedulerFlags) enabled() bool {
	return f.name != "" && f.name != "none"
}

func (f *schedulerFlags) build(opt *optim.Optimizer) (optim.Scheduler, error) {
	switch f.name {
	case "step":
		return optim.NewStepLR(opt, optim.StepLRConfig{StepSize: f.stepSize, Gamma: f.gamma})
	case "exponential":
		return optim.NewExponentialLR(opt, f.gamma)
	case "multistep":
		return optim.NewMultiStepLR(opt, optim.MultiStepLRConfig{Milestones: f.milestones, Gamma: f.gamma})
	case "polynomial":
		return optim.NewPolynomialLR(opt, optim.PolynomialLRConfig{
			MaxDecaySteps: f.maxDecay,
			EndLR:         f.endLR,
			Power:         f.power,
		})
	case "cosine":
		return optim.NewCosineAnnealingLR(opt, optim.CosineAnnealingLRConfig{TMax: f.tMax, EtaMin: f.etaMin})
	case "warmup-cosine":
		return f.warmupCosine(opt)
	default:
		return nil, errors.Errorf("unknown scheduler %q (want one of %s)", f.name, strings.Join(schedulerNames, ", "))
	}
}

// warmupCosine ramps the rate up linearly for the warmup epochs, then anneals
// it with a cosine over tMax epochs.
//
// Binding a scheduler rewrites the learning rate, so the base rate is put
// back before each binding.
func (f *schedulerFlags) warmupCosine(opt *optim.Optimizer) (optim.Scheduler, error) {
	if f.warmup <= 0 {
		return nil, errors.Errorf("warmup must be positive, got %d", f.warmup)
	}
	base := float64(opt.LearningRate())
	warmup := float64(f.warmup)

	ramp, err := optim.NewLambdaLR(opt, func(epoch int) float64 {
		return math.Min(1, float64(epoch+1)/warmup)
	})
	if err != nil {
		return nil, err
	}
	opt.SetLearningRate(base)

	anneal, err := optim.NewCosineAnnealingLR(opt, optim.CosineAnnealingLRConfig{TMax: f.tMax, EtaMin: f.etaMin})
	if err != nil {
		return nil, err
	}
	opt.SetLearningRate(base)

	return optim.NewSequentialLR([]optim.Scheduler{ramp, anneal}, []int{f.warmup})
}

func formatLR(lr float64) string {
	return fmt.Sprintf("%.6g", lr)
}
