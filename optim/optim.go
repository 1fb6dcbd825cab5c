// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"log/slog"

	"github.com/born-ml/descent/internal/optim"
	"github.com/born-ml/descent/internal/parallel"
)

// Optimizer applies an update rule to trees of parameters.
type Optimizer = optim.Optimizer

// Rule computes the update of a single parameter.
type Rule = optim.Rule

// Model is anything holding a parameter tree that can be updated in place.
type Model = optim.Model

// Option configures an Optimizer.
type Option = optim.Option

// Slot holds the state of a single parameter.
type Slot = optim.Slot

// Label names a tensor held in a Slot.
type Label = optim.Label

// Slot labels used by the built-in rules.
const (
	LabelV           Label = optim.LabelV
	LabelU           Label = optim.LabelU
	LabelM           Label = optim.LabelM
	LabelExpAvgSqRow Label = optim.LabelExpAvgSqRow
	LabelExpAvgSqCol Label = optim.LabelExpAvgSqCol
	LabelExpAvgSq    Label = optim.LabelExpAvgSq
	LabelExpAvg      Label = optim.LabelExpAvg
)

// State keys.
const (
	LearningRateKey = optim.LearningRateKey
	StepKey         = optim.StepKey
)

// Errors returned by optimizers and schedulers.
var (
	ErrInvalidConfig   = optim.ErrInvalidConfig
	ErrInvalidArgument = optim.ErrInvalidArgument
	ErrShapeMismatch   = optim.ErrShapeMismatch
)

// ConfigError describes a rejected hyperparameter.
type ConfigError = optim.ConfigError

// ParallelConfig controls how many parameters are updated concurrently.
type ParallelConfig = parallel.Config

// DefaultParallelConfig returns a configuration sized to the CPU count.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// New creates an optimizer driven by a custom rule.
func New(rule Rule, learningRate float64, opts ...Option) *Optimizer {
	return optim.New(rule, learningRate, opts...)
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return optim.WithLogger(logger)
}

// WithParallel updates parameters concurrently according to cfg.
func WithParallel(cfg ParallelConfig) Option {
	return optim.WithParallel(cfg)
}

// ParseLabel returns the label with the given state key.
func ParseLabel(name string) (Label, bool) {
	return optim.ParseLabel(name)
}

// SGD (Stochastic Gradient Descent)

// SGD is the SGD update rule with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD.
type SGDConfig = optim.SGDConfig

// DefaultSGDConfig returns plain SGD with a learning rate of 0.01.
func DefaultSGDConfig() SGDConfig {
	return optim.DefaultSGDConfig()
}

// NewSGD creates an optimizer driven by SGD. Config fields are used as
// given, including zeros.
//
// Example:
//
//	opt, err := optim.NewSGD(optim.SGDConfig{
//	    LearningRate: 0.01,
//	    Momentum:     0.9,
//	})
func NewSGD(cfg SGDConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewSGD(cfg, opts...)
}

// RMSprop

// RMSprop is the RMSprop update rule.
type RMSprop = optim.RMSprop

// RMSpropConfig contains configuration for RMSprop.
type RMSpropConfig = optim.RMSpropConfig

// DefaultRMSpropConfig returns the usual RMSprop hyperparameters.
func DefaultRMSpropConfig() RMSpropConfig {
	return optim.DefaultRMSpropConfig()
}

// NewRMSprop creates an optimizer driven by RMSprop.
func NewRMSprop(cfg RMSpropConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewRMSprop(cfg, opts...)
}

// Adagrad

// Adagrad is the Adagrad update rule.
type Adagrad = optim.Adagrad

// AdagradConfig contains configuration for Adagrad.
type AdagradConfig = optim.AdagradConfig

// DefaultAdagradConfig returns the usual Adagrad hyperparameters.
func DefaultAdagradConfig() AdagradConfig {
	return optim.DefaultAdagradConfig()
}

// NewAdagrad creates an optimizer driven by Adagrad.
func NewAdagrad(cfg AdagradConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewAdagrad(cfg, opts...)
}

// AdaDelta

// AdaDelta is the AdaDelta update rule.
type AdaDelta = optim.AdaDelta

// AdaDeltaConfig contains configuration for AdaDelta.
type AdaDeltaConfig = optim.AdaDeltaConfig

// DefaultAdaDeltaConfig returns the usual AdaDelta hyperparameters.
func DefaultAdaDeltaConfig() AdaDeltaConfig {
	return optim.DefaultAdaDeltaConfig()
}

// NewAdaDelta creates an optimizer driven by AdaDelta.
func NewAdaDelta(cfg AdaDeltaConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewAdaDelta(cfg, opts...)
}

// Adam (Adaptive Moment Estimation)

// Adam is the Adam update rule.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam.
type AdamConfig = optim.AdamConfig

// DefaultAdamConfig returns the standard Adam hyperparameters.
func DefaultAdamConfig() AdamConfig {
	return optim.DefaultAdamConfig()
}

// NewAdam creates an optimizer driven by Adam.
//
// Example:
//
//	cfg := optim.DefaultAdamConfig()
//	cfg.LearningRate = 3e-4
//	opt, err := optim.NewAdam(cfg)
func NewAdam(cfg AdamConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewAdam(cfg, opts...)
}

// AdamW is Adam with decoupled weight decay.
type AdamW = optim.AdamW

// AdamWConfig contains configuration for AdamW.
type AdamWConfig = optim.AdamWConfig

// DefaultAdamWConfig returns the standard AdamW hyperparameters.
func DefaultAdamWConfig() AdamWConfig {
	return optim.DefaultAdamWConfig()
}

// NewAdamW creates an optimizer driven by AdamW.
func NewAdamW(cfg AdamWConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewAdamW(cfg, opts...)
}

// Adamax is the infinity-norm variant of Adam.
type Adamax = optim.Adamax

// AdamaxConfig contains configuration for Adamax.
type AdamaxConfig = optim.AdamaxConfig

// DefaultAdamaxConfig returns the standard Adamax hyperparameters.
func DefaultAdamaxConfig() AdamaxConfig {
	return optim.DefaultAdamaxConfig()
}

// NewAdamax creates an optimizer driven by Adamax.
func NewAdamax(cfg AdamaxConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewAdamax(cfg, opts...)
}

// Lion

// Lion is the sign-based Lion update rule.
type Lion = optim.Lion

// LionConfig contains configuration for Lion.
type LionConfig = optim.LionConfig

// DefaultLionConfig returns the standard Lion hyperparameters.
func DefaultLionConfig() LionConfig {
	return optim.DefaultLionConfig()
}

// NewLion creates an optimizer driven by Lion.
func NewLion(cfg LionConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewLion(cfg, opts...)
}

// Adafactor

// Adafactor is the Adafactor update rule with factored second moments.
type Adafactor = optim.Adafactor

// AdafactorConfig contains configuration for Adafactor.
type AdafactorConfig = optim.AdafactorConfig

// DefaultAdafactorConfig returns the standard Adafactor hyperparameters.
func DefaultAdafactorConfig() AdafactorConfig {
	return optim.DefaultAdafactorConfig()
}

// NewAdafactor creates an optimizer driven by Adafactor.
//
// Example:
//
//	opt, err := optim.NewAdafactor(optim.DefaultAdafactorConfig())
func NewAdafactor(cfg AdafactorConfig, opts ...Option) (*Optimizer, error) {
	return optim.NewAdafactor(cfg, opts...)
}
