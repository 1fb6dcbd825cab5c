package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// Adagrad scales each coordinate by the inverse root of its accumulated
// squared gradients.
//
// Update rule:
//
//	v = v + g²
//	param = param - lr * g / (sqrt(v) + eps)
//
// The accumulator never decreases, so the effective step size of every
// coordinate shrinks over time.
//
// Reference: Duchi et al., "Adaptive Subgradient Methods for Online Learning
// and Stochastic Optimization", JMLR 2011.
type Adagrad struct {
	eps float64
}

// AdagradConfig holds configuration for the Adagrad optimizer.
type AdagradConfig struct {
	LearningRate float64 // Learning rate
	Eps          float64 // Term for numerical stability
}

// DefaultAdagradConfig returns lr 0.01 and eps 1e-8.
func DefaultAdagradConfig() AdagradConfig {
	return AdagradConfig{LearningRate: 0.01, Eps: 1e-8}
}

// NewAdagrad creates an optimizer driven by the Adagrad rule.
// Fields are used as given.
func NewAdagrad(cfg AdagradConfig, opts ...Option) (*Optimizer, error) {
	switch {
	case cfg.LearningRate < 0:
		return nil, invalidConfig("adagrad", "learning rate", cfg.LearningRate, "must be >= 0")
	case cfg.Eps < 0:
		return nil, invalidConfig("adagrad", "epsilon", cfg.Eps, "must be >= 0")
	}

	return New(&Adagrad{eps: cfg.Eps}, cfg.LearningRate, opts...), nil
}

// Name returns "adagrad".
func (a *Adagrad) Name() string { return "adagrad" }

// InitSingle creates the squared-gradient accumulator.
func (a *Adagrad) InitSingle(param *tensor.Array, slot *Slot) {
	slot.Init(LabelV, tensor.ZerosLike(param))
}

// ApplySingle performs one Adagrad step.
func (a *Adagrad) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)

	v := slot.Get(LabelV).Add(grad.Square())
	slot.Set(LabelV, v)

	return param.Sub(grad.MulScalar(lr).Div(v.Sqrt().AddScalar(a.eps)))
}
