package optim

import (
	"math"
	"slices"

	"github.com/samber/lo"
)

// Scheduler adjusts an optimizer's learning rate as epochs advance.
type Scheduler interface {
	// Step advances to the next epoch and updates the learning rate.
	Step()

	// StepTo jumps to epoch and updates the learning rate.
	StepTo(epoch int)

	// GetLR returns the learning rate for the current epoch.
	GetLR() float64

	// LastEpoch returns the current epoch.
	LastEpoch() int

	// BaseLR returns the optimizer's learning rate at the time of binding.
	BaseLR() float64

	// Optimizer returns the bound optimizer.
	Optimizer() *Optimizer
}

// Policy maps a base learning rate and an epoch to a learning rate.
type Policy func(baseLR float64, epoch int) float64

// SchedulerOption configures a scheduler.
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	lastEpoch int
}

// WithLastEpoch sets the epoch the scheduler starts from (default: -1).
// The first Step then moves to lastEpoch + 1.
func WithLastEpoch(epoch int) SchedulerOption {
	return func(o *schedulerOptions) {
		o.lastEpoch = epoch
	}
}

func applySchedulerOptions(opts []SchedulerOption) schedulerOptions {
	o := schedulerOptions{lastEpoch: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LRScheduler writes policy(baseLR, epoch) into an optimizer on every step.
//
// Construction captures the optimizer's current learning rate as the base
// rate and immediately steps to the starting epoch, so the optimizer's rate
// changes as soon as the scheduler exists.
//
// Example:
//
//	sched, err := optim.NewStepLR(opt, optim.StepLRConfig{StepSize: 10, Gamma: 0.5})
//	for epoch := range epochs {
//	    sched.Step()
//	    train(opt)
//	}
type LRScheduler struct {
	name      string
	opt       *Optimizer
	policy    Policy
	baseLR    float64
	lastEpoch int
}

// NewLRScheduler binds policy to opt.
//
// Returns ErrInvalidArgument if opt is nil and ErrInvalidConfig if policy is nil.
func NewLRScheduler(opt *Optimizer, policy Policy, opts ...SchedulerOption) (*LRScheduler, error) {
	return newScheduler("custom", opt, policy, opts)
}

func newScheduler(name string, opt *Optimizer, policy Policy, opts []SchedulerOption) (*LRScheduler, error) {
	if opt == nil {
		return nil, invalidArgument("%s scheduler: optimizer is nil", name)
	}
	if policy == nil {
		return nil, invalidConfig(name, "policy", nil, "must not be nil")
	}
	o := applySchedulerOptions(opts)
	s := &LRScheduler{
		name:   name,
		opt:    opt,
		policy: policy,
		baseLR: float64(opt.LearningRate()),
	}
	s.StepTo(o.lastEpoch)
	opt.logger.Debug("scheduler bound", "scheduler", name, "base_lr", s.baseLR, "last_epoch", o.lastEpoch)
	return s, nil
}

// Step advances to the next epoch.
func (s *LRScheduler) Step() {
	s.StepTo(s.lastEpoch + 1)
}

// StepTo sets the epoch and writes the resulting learning rate.
func (s *LRScheduler) StepTo(epoch int) {
	s.lastEpoch = epoch
	s.opt.SetLearningRate(s.GetLR())
}

// GetLR returns the learning rate for the current epoch.
func (s *LRScheduler) GetLR() float64 {
	return s.policy(s.baseLR, s.lastEpoch)
}

// LastEpoch returns the current epoch.
func (s *LRScheduler) LastEpoch() int { return s.lastEpoch }

// BaseLR returns the learning rate captured at binding.
func (s *LRScheduler) BaseLR() float64 { return s.baseLR }

// Optimizer returns the bound optimizer.
func (s *LRScheduler) Optimizer() *Optimizer { return s.opt }

// StepLRConfig configures NewStepLR.
type StepLRConfig struct {
	StepSize int     // Period of decay in epochs; must be > 0
	Gamma    float64 // Multiplicative decay factor, typically 0.1
}

// NewStepLR decays the rate by Gamma every StepSize epochs:
//
//	lr = base * gamma^floor(epoch / step_size)
//
// The division floors towards negative infinity, so epoch -1 yields
// base / gamma.
func NewStepLR(opt *Optimizer, cfg StepLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	if cfg.StepSize <= 0 {
		return nil, invalidConfig("step_lr", "step size", cfg.StepSize, "must be > 0")
	}
	return newScheduler("step_lr", opt, func(base float64, epoch int) float64 {
		return base * math.Pow(cfg.Gamma, float64(floorDiv(epoch, cfg.StepSize)))
	}, opts)
}

// NewExponentialLR decays the rate by gamma every epoch:
//
//	lr = base * gamma^epoch
func NewExponentialLR(opt *Optimizer, gamma float64, opts ...SchedulerOption) (*LRScheduler, error) {
	return newScheduler("exponential_lr", opt, func(base float64, epoch int) float64 {
		return base * math.Pow(gamma, float64(epoch))
	}, opts)
}

// MultiStepLRConfig configures NewMultiStepLR.
type MultiStepLRConfig struct {
	Milestones []int   // Epochs at which the rate decays; sorted on construction
	Gamma      float64 // Multiplicative decay factor, typically 0.1
}

// NewMultiStepLR decays the rate by Gamma at every milestone reached:
//
//	lr = base * gamma^(number of milestones <= epoch)
func NewMultiStepLR(opt *Optimizer, cfg MultiStepLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	milestones := slices.Clone(cfg.Milestones)
	slices.Sort(milestones)
	return newScheduler("multistep_lr", opt, func(base float64, epoch int) float64 {
		passed := lo.CountBy(milestones, func(m int) bool { return epoch >= m })
		return base * math.Pow(cfg.Gamma, float64(passed))
	}, opts)
}

// NewLambdaLR scales the base rate by a user function of the epoch:
//
//	lr = base * fn(epoch)
func NewLambdaLR(opt *Optimizer, fn func(epoch int) float64, opts ...SchedulerOption) (*LRScheduler, error) {
	if fn == nil {
		return nil, invalidConfig("lambda_lr", "lambda", nil, "must not be nil")
	}
	return newScheduler("lambda_lr", opt, func(base float64, epoch int) float64 {
		return base * fn(epoch)
	}, opts)
}

// PolynomialLRConfig configures NewPolynomialLR.
type PolynomialLRConfig struct {
	MaxDecaySteps int     // Epoch at which the rate reaches EndLR; must be > 0
	EndLR         float64 // Final learning rate
	Power         float64 // Exponent of the decay; 1 is linear, 0 keeps the base rate
}

// NewPolynomialLR decays the rate polynomially towards EndLR:
//
//	t  = min(epoch, max_decay_steps)
//	lr = (base - end_lr) * (1 - t / max_decay_steps)^power + end_lr
func NewPolynomialLR(opt *Optimizer, cfg PolynomialLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	if cfg.MaxDecaySteps <= 0 {
		return nil, invalidConfig("polynomial_lr", "max decay steps", cfg.MaxDecaySteps, "must be > 0")
	}
	return newScheduler("polynomial_lr", opt, func(base float64, epoch int) float64 {
		t := float64(min(epoch, cfg.MaxDecaySteps))
		factor := math.Pow(1-t/float64(cfg.MaxDecaySteps), cfg.Power)
		return (base-cfg.EndLR)*factor + cfg.EndLR
	}, opts)
}

// CosineAnnealingLRConfig configures NewCosineAnnealingLR.
type CosineAnnealingLRConfig struct {
	TMax   int     // Half period of the cosine in epochs; must be > 0
	EtaMin float64 // Minimum learning rate
}

// NewCosineAnnealingLR follows a cosine from the base rate down to EtaMin:
//
//	lr = eta_min + (base - eta_min) * (1 + cos(π * epoch / t_max)) / 2
//
// Epoch 0 returns the base rate exactly.
func NewCosineAnnealingLR(opt *Optimizer, cfg CosineAnnealingLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	if cfg.TMax <= 0 {
		return nil, invalidConfig("cosine_annealing_lr", "t_max", cfg.TMax, "must be > 0")
	}
	return newScheduler("cosine_annealing_lr", opt, func(base float64, epoch int) float64 {
		if epoch == 0 {
			return base
		}
		cos := math.Cos(math.Pi * float64(epoch) / float64(cfg.TMax))
		return cfg.EtaMin + (base-cfg.EtaMin)*(1+cos)/2
	}, opts)
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
