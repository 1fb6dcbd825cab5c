package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// AdaDelta adapts the step size from running averages of squared gradients
// and squared updates.
//
// Update rule:
//
//	v = rho * v + (1 - rho) * g²
//	Δ = sqrt(u + eps) / sqrt(v + eps) * g
//	u = rho * u + (1 - rho) * Δ²
//	param = param - lr * Δ
//
// Reference: Zeiler, "ADADELTA: An Adaptive Learning Rate Method", 2012.
type AdaDelta struct {
	rho float64
	eps float64
}

// AdaDeltaConfig holds configuration for the AdaDelta optimizer.
type AdaDeltaConfig struct {
	LearningRate float64 // Learning rate
	Rho          float64 // Decay of the running averages
	Eps          float64 // Term for numerical stability
}

// DefaultAdaDeltaConfig returns lr 1.0, rho 0.9 and eps 1e-6.
func DefaultAdaDeltaConfig() AdaDeltaConfig {
	return AdaDeltaConfig{LearningRate: 1.0, Rho: 0.9, Eps: 1e-6}
}

// NewAdaDelta creates an optimizer driven by the AdaDelta rule.
// Fields are used as given.
func NewAdaDelta(cfg AdaDeltaConfig, opts ...Option) (*Optimizer, error) {
	switch {
	case cfg.LearningRate < 0:
		return nil, invalidConfig("adadelta", "learning rate", cfg.LearningRate, "must be >= 0")
	case cfg.Rho < 0:
		return nil, invalidConfig("adadelta", "rho", cfg.Rho, "must be >= 0")
	case cfg.Eps < 0:
		return nil, invalidConfig("adadelta", "epsilon", cfg.Eps, "must be >= 0")
	}

	return New(&AdaDelta{rho: cfg.Rho, eps: cfg.Eps}, cfg.LearningRate, opts...), nil
}

// Name returns "adadelta".
func (a *AdaDelta) Name() string { return "adadelta" }

// InitSingle creates the squared-gradient and squared-update averages.
func (a *AdaDelta) InitSingle(param *tensor.Array, slot *Slot) {
	slot.Init(LabelV, tensor.ZerosLike(param))
	slot.Init(LabelU, tensor.ZerosLike(param))
}

// ApplySingle performs one AdaDelta step.
func (a *AdaDelta) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)

	v := slot.Get(LabelV).MulScalar(a.rho).Add(grad.Square().MulScalar(1 - a.rho))
	delta := slot.Get(LabelU).AddScalar(a.eps).Sqrt().
		Div(v.AddScalar(a.eps).Sqrt()).
		Mul(grad)
	u := slot.Get(LabelU).MulScalar(a.rho).Add(delta.Square().MulScalar(1 - a.rho))

	slot.Set(LabelV, v)
	slot.Set(LabelU, u)

	return param.Sub(delta.MulScalar(lr))
}
