package optim

import (
	"github.com/born-ml/descent/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule:
//
//	g = g + weight_decay * param
//	v = momentum * v + (1 - dampening) * g
//	param = param - lr * v                       // standard
//	param = param - lr * (g + momentum * v)      // Nesterov
//
// Without momentum the update is the plain param = param - lr * g, but the
// velocity entry is still created so the state layout does not depend on the
// hyperparameters.
//
// Example:
//
//	opt, err := optim.NewSGD(optim.SGDConfig{
//	    LearningRate: 0.1,
//	    Momentum:     0.9,
//	})
type SGD struct {
	momentum    float64
	weightDecay float64
	dampening   float64
	nesterov    bool
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LearningRate float64 // Learning rate
	Momentum     float64 // Momentum factor; <= 0 disables momentum
	WeightDecay  float64 // L2 penalty added to the gradient
	Dampening    float64 // Dampening for momentum
	Nesterov     bool    // Enables Nesterov momentum; requires Momentum > 0 and Dampening == 0
}

// DefaultSGDConfig returns plain SGD with a learning rate of 0.01.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{LearningRate: 0.01}
}

// NewSGD creates an optimizer driven by the SGD rule.
//
// Fields are used as given. Returns ErrInvalidConfig if Nesterov is requested
// with non-positive momentum or non-zero dampening, or if the learning rate or
// weight decay is negative.
func NewSGD(cfg SGDConfig, opts ...Option) (*Optimizer, error) {
	switch {
	case cfg.LearningRate < 0:
		return nil, invalidConfig("sgd", "learning rate", cfg.LearningRate, "must be >= 0")
	case cfg.WeightDecay < 0:
		return nil, invalidConfig("sgd", "weight decay", cfg.WeightDecay, "must be >= 0")
	case cfg.Nesterov && (cfg.Momentum <= 0 || cfg.Dampening != 0):
		return nil, invalidConfig("sgd", "nesterov", cfg.Nesterov, "requires momentum > 0 and zero dampening")
	}

	rule := &SGD{
		momentum:    cfg.Momentum,
		weightDecay: cfg.WeightDecay,
		dampening:   cfg.Dampening,
		nesterov:    cfg.Nesterov,
	}
	return New(rule, cfg.LearningRate, opts...), nil
}

// Name returns "sgd".
func (s *SGD) Name() string { return "sgd" }

// InitSingle creates the velocity entry.
func (s *SGD) InitSingle(param *tensor.Array, slot *Slot) {
	slot.Init(LabelV, tensor.ZerosLike(param))
}

// ApplySingle performs one SGD step.
func (s *SGD) ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array {
	lr = grad.DType().Round(lr)

	if s.weightDecay != 0 {
		grad = grad.Add(param.MulScalar(s.weightDecay))
	}
	if s.momentum <= 0 {
		return param.Sub(grad.MulScalar(lr))
	}

	v := slot.Get(LabelV).MulScalar(s.momentum)
	if s.dampening > 0 {
		v = v.Add(grad.MulScalar(1 - s.dampening))
	} else {
		v = v.Add(grad)
	}
	slot.Set(LabelV, v)

	update := v
	if s.nesterov {
		update = grad.Add(v.MulScalar(s.momentum))
	}
	return param.Sub(update.MulScalar(lr))
}
