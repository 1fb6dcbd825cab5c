package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// moments holds the running averages shared by the Adam family.
//
//	m = beta1 * m + (1 - beta1) * g
//	v = beta2 * v + (1 - beta2) * g²
type moments struct {
	beta1, beta2 float64
	eps          float64
}

func (mo moments) init(param *tensor.Array, slot *Slot) {
	slot.Init(LabelM, tensor.ZerosLike(param))
	slot.Init(LabelV, tensor.ZerosLike(param))
}

func (mo moments) first(grad *tensor.Array, slot *Slot) *tensor.Array {
	m := slot.Get(LabelM).MulScalar(mo.beta1).Add(grad.MulScalar(1 - mo.beta1))
	slot.Set(LabelM, m)
	return m
}

// adam updates both moments and returns param - lr * m / (sqrt(v) + eps).
func (mo moments) adam(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	m := mo.first(grad, slot)
	v := slot.Get(LabelV).MulScalar(mo.beta2).Add(grad.Square().MulScalar(1 - mo.beta2))
	slot.Set(LabelV, v)

	return param.Sub(m.MulScalar(lr).Div(v.Sqrt().AddScalar(mo.eps)))
}

func validateMoments(rule string, lr, eps float64) error {
	switch {
	case lr < 0:
		return invalidConfig(rule, "learning rate", lr, "must be >= 0")
	case eps < 0:
		return invalidConfig(rule, "epsilon", eps, "must be >= 0")
	}
	return nil
}

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//
// Update rule:
//
//	m = beta1 * m + (1-beta1) * g
//	v = beta2 * v + (1-beta2) * g²
//	param = param - lr * m / (sqrt(v) + eps)
//
// No bias correction is applied: early steps are smaller than in the paper's
// formulation until the averages warm up.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	opt, err := optim.NewAdam(optim.AdamConfig{
//	    LearningRate: 0.001,
//	    Betas:        [2]float64{0.9, 0.999},
//	    Eps:          1e-8,
//	})
type Adam struct {
	moments
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LearningRate float64    // Learning rate
	Betas        [2]float64 // Coefficients for computing running averages
	Eps          float64    // Term for numerical stability
}

// DefaultAdamConfig returns the standard Adam hyperparameters:
//   - LearningRate: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LearningRate: 0.001,
		Betas:        [2]float64{0.9, 0.999},
		Eps:          1e-8,
	}
}

// NewAdam creates an optimizer driven by the Adam rule.
// Fields are used as given.
func NewAdam(cfg AdamConfig, opts ...Option) (*Optimizer, error) {
	if err := validateMoments("adam", cfg.LearningRate, cfg.Eps); err != nil {
		return nil, err
	}
	rule := &Adam{moments{beta1: cfg.Betas[0], beta2: cfg.Betas[1], eps: cfg.Eps}}
	return New(rule, cfg.LearningRate, opts...), nil
}

// Name returns "adam".
func (a *Adam) Name() string { return "adam" }

// InitSingle creates the first and second moments.
func (a *Adam) InitSingle(param *tensor.Array, slot *Slot) {
	a.init(param, slot)
}

// ApplySingle performs one Adam step.
func (a *Adam) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	return a.adam(grad, param, slot, grad.DType().Round(lr))
}

// AdamW is Adam with decoupled weight decay.
//
// The parameter is shrunk before the Adam step instead of adding an L2 term
// to the gradient:
//
//	param = param * (1 - lr * weight_decay)
//	param = adam(param)
//
// Reference: Loshchilov & Hutter, "Decoupled Weight Decay Regularization", 2019.
type AdamW struct {
	moments
	weightDecay float64
}

// AdamWConfig holds configuration for the AdamW optimizer.
type AdamWConfig struct {
	LearningRate float64    // Learning rate
	Betas        [2]float64 // Coefficients for computing running averages
	Eps          float64    // Term for numerical stability
	WeightDecay  float64    // Decoupled weight decay
}

// DefaultAdamWConfig returns the standard AdamW hyperparameters.
func DefaultAdamWConfig() AdamWConfig {
	return AdamWConfig{
		LearningRate: 0.001,
		Betas:        [2]float64{0.9, 0.999},
		Eps:          1e-8,
		WeightDecay:  0.01,
	}
}

// NewAdamW creates an optimizer driven by the AdamW rule.
func NewAdamW(cfg AdamWConfig, opts ...Option) (*Optimizer, error) {
	if err := validateMoments("adamw", cfg.LearningRate, cfg.Eps); err != nil {
		return nil, err
	}
	if cfg.WeightDecay < 0 {
		return nil, invalidConfig("adamw", "weight decay", cfg.WeightDecay, "must be >= 0")
	}
	rule := &AdamW{
		moments:     moments{beta1: cfg.Betas[0], beta2: cfg.Betas[1], eps: cfg.Eps},
		weightDecay: cfg.WeightDecay,
	}
	return New(rule, cfg.LearningRate, opts...), nil
}

// Name returns "adamw".
func (a *AdamW) Name() string { return "adamw" }

// InitSingle creates the first and second moments.
func (a *AdamW) InitSingle(param *tensor.Array, slot *Slot) {
	a.init(param, slot)
}

// ApplySingle performs one AdamW step.
func (a *AdamW) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)
	return a.adam(grad, param.MulScalar(1-lr*a.weightDecay), slot, lr)
}

// Adamax is the infinity-norm variant of Adam.
//
// Update rule:
//
//	m = beta1 * m + (1-beta1) * g
//	v = max(beta2 * v, |g|)
//	param = param - lr * m / (v + eps)
//
// Reference: Kingma & Ba, "Adam: A Method for Stochastic Optimization", §7.
type Adamax struct {
	moments
}

// AdamaxConfig holds configuration for the Adamax optimizer.
type AdamaxConfig struct {
	LearningRate float64    // Learning rate
	Betas        [2]float64 // Coefficients for computing running averages
	Eps          float64    // Term for numerical stability
}

// DefaultAdamaxConfig returns lr 0.002, betas [0.9, 0.999] and eps 1e-8.
func DefaultAdamaxConfig() AdamaxConfig {
	return AdamaxConfig{LearningRate: 0.002, Betas: [2]float64{0.9, 0.999}, Eps: 1e-8}
}

// NewAdamax creates an optimizer driven by the Adamax rule.
// Fields are used as given.
func NewAdamax(cfg AdamaxConfig, opts ...Option) (*Optimizer, error) {
	if err := validateMoments("adamax", cfg.LearningRate, cfg.Eps); err != nil {
		return nil, err
	}
	rule := &Adamax{moments{beta1: cfg.Betas[0], beta2: cfg.Betas[1], eps: cfg.Eps}}
	return New(rule, cfg.LearningRate, opts...), nil
}

// Name returns "adamax".
func (a *Adamax) Name() string { return "adamax" }

// InitSingle creates the first moment and the infinity-norm accumulator.
func (a *Adamax) InitSingle(param *tensor.Array, slot *Slot) {
	a.init(param, slot)
}

// ApplySingle performs one Adamax step.
func (a *Adamax) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)

	m := a.first(grad, slot)
	v := slot.Get(LabelV).MulScalar(a.beta2).Maximum(grad.Abs())
	slot.Set(LabelV, v)

	return param.Sub(m.MulScalar(lr).Div(v.AddScalar(a.eps)))
}
