package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// Lion (EvoLved Sign Momentum) steps by the sign of an interpolated momentum.
//
// Update rule:
//
//	c = beta1 * m + (1 - beta1) * g
//	m = beta2 * m + (1 - beta2) * g
//	param = param * (1 - lr * weight_decay)     // when weight_decay > 0
//	param = param - lr * sign(c)
//
// c is computed from the momentum before it is updated. Every coordinate
// moves by exactly lr, so Lion usually wants a learning rate 3-10x smaller
// than Adam.
//
// Reference: Chen et al., "Symbolic Discovery of Optimization Algorithms", 2023.
type Lion struct {
	beta1, beta2 float64
	weightDecay  float64
}

// LionConfig holds configuration for the Lion optimizer.
type LionConfig struct {
	LearningRate float64    // Learning rate
	Betas        [2]float64 // Interpolation and momentum coefficients
	WeightDecay  float64    // Decoupled weight decay
}

// DefaultLionConfig returns lr 1e-4, betas [0.9, 0.99] and no weight decay.
func DefaultLionConfig() LionConfig {
	return LionConfig{LearningRate: 1e-4, Betas: [2]float64{0.9, 0.99}}
}

// NewLion creates an optimizer driven by the Lion rule.
// Fields are used as given.
func NewLion(cfg LionConfig, opts ...Option) (*Optimizer, error) {
	switch {
	case cfg.LearningRate < 0:
		return nil, invalidConfig("lion", "learning rate", cfg.LearningRate, "must be >= 0")
	case cfg.WeightDecay < 0:
		return nil, invalidConfig("lion", "weight decay", cfg.WeightDecay, "must be >= 0")
	}

	rule := &Lion{beta1: cfg.Betas[0], beta2: cfg.Betas[1], weightDecay: cfg.WeightDecay}
	return New(rule, cfg.LearningRate, opts...), nil
}

// Name returns "lion".
func (l *Lion) Name() string { return "lion" }

// InitSingle creates the momentum.
func (l *Lion) InitSingle(param *tensor.Array, slot *Slot) {
	slot.Init(LabelM, tensor.ZerosLike(param))
}

// ApplySingle performs one Lion step.
func (l *Lion) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)

	m := slot.Get(LabelM)
	c := m.MulScalar(l.beta1).Add(grad.MulScalar(1 - l.beta1))
	slot.Set(LabelM, m.MulScalar(l.beta2).Add(grad.MulScalar(1-l.beta2)))

	if l.weightDecay > 0 {
		param = param.MulScalar(1 - lr*l.weightDecay)
	}
	return param.Sub(c.Sign().MulScalar(lr))
}
