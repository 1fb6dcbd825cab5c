package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// RMSprop divides the gradient by a running average of its recent magnitude.
//
// Update rule:
//
//	v = alpha * v + (1 - alpha) * g²
//	param = param - lr * g / (sqrt(v) + eps)
//
// Reference: Tieleman & Hinton, "Lecture 6.5 - rmsprop", Coursera, 2012.
type RMSprop struct {
	alpha float64
	eps   float64
}

// RMSpropConfig holds configuration for the RMSprop optimizer.
type RMSpropConfig struct {
	LearningRate float64 // Learning rate
	Alpha        float64 // Smoothing constant
	Eps          float64 // Term for numerical stability
}

// DefaultRMSpropConfig returns lr 0.01, alpha 0.99 and eps 1e-8.
func DefaultRMSpropConfig() RMSpropConfig {
	return RMSpropConfig{LearningRate: 0.01, Alpha: 0.99, Eps: 1e-8}
}

// NewRMSprop creates an optimizer driven by the RMSprop rule.
// Fields are used as given; start from DefaultRMSpropConfig for the usual values.
func NewRMSprop(cfg RMSpropConfig, opts ...Option) (*Optimizer, error) {
	switch {
	case cfg.LearningRate < 0:
		return nil, invalidConfig("rmsprop", "learning rate", cfg.LearningRate, "must be >= 0")
	case cfg.Alpha < 0:
		return nil, invalidConfig("rmsprop", "alpha", cfg.Alpha, "must be >= 0")
	case cfg.Eps < 0:
		return nil, invalidConfig("rmsprop", "epsilon", cfg.Eps, "must be >= 0")
	}

	return New(&RMSprop{alpha: cfg.Alpha, eps: cfg.Eps}, cfg.LearningRate, opts...), nil
}

// Name returns "rmsprop".
func (r *RMSprop) Name() string { return "rmsprop" }

// InitSingle creates the squared-gradient average.
func (r *RMSprop) InitSingle(param *tensor.Array, slot *Slot) {
	slot.Init(LabelV, tensor.ZerosLike(param))
}

// ApplySingle performs one RMSprop step.
func (r *RMSprop) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)

	v := slot.Get(LabelV).MulScalar(r.alpha).Add(grad.Square().MulScalar(1 - r.alpha))
	slot.Set(LabelV, v)

	return param.Sub(grad.MulScalar(lr).Div(v.Sqrt().AddScalar(r.eps)))
}
