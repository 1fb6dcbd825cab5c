// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/descent/internal/optim"
)

// Scheduler adjusts an optimizer's learning rate as epochs advance.
type Scheduler = optim.Scheduler

// Policy maps a base learning rate and an epoch to a learning rate.
type Policy = optim.Policy

// SchedulerOption configures a scheduler.
type SchedulerOption = optim.SchedulerOption

// LRScheduler applies a Policy to an optimizer.
type LRScheduler = optim.LRScheduler

// SequentialLR runs schedulers one after another.
type SequentialLR = optim.SequentialLR

// Scheduler configurations.
type (
	StepLRConfig            = optim.StepLRConfig
	MultiStepLRConfig       = optim.MultiStepLRConfig
	PolynomialLRConfig      = optim.PolynomialLRConfig
	CosineAnnealingLRConfig = optim.CosineAnnealingLRConfig
)

// WithLastEpoch sets the epoch the scheduler starts from (default: -1).
func WithLastEpoch(epoch int) SchedulerOption {
	return optim.WithLastEpoch(epoch)
}

// NewLRScheduler binds a custom policy to opt.
func NewLRScheduler(opt *Optimizer, policy Policy, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewLRScheduler(opt, policy, opts...)
}

// NewStepLR decays the learning rate by Gamma every StepSize epochs.
//
// Example:
//
//	sched, err := optim.NewStepLR(opt, optim.StepLRConfig{StepSize: 30, Gamma: 0.1})
func NewStepLR(opt *Optimizer, cfg StepLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewStepLR(opt, cfg, opts...)
}

// NewExponentialLR decays the learning rate by gamma every epoch.
func NewExponentialLR(opt *Optimizer, gamma float64, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewExponentialLR(opt, gamma, opts...)
}

// NewMultiStepLR decays the learning rate by Gamma at every milestone.
func NewMultiStepLR(opt *Optimizer, cfg MultiStepLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewMultiStepLR(opt, cfg, opts...)
}

// NewLambdaLR scales the base learning rate by fn(epoch).
func NewLambdaLR(opt *Optimizer, fn func(epoch int) float64, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewLambdaLR(opt, fn, opts...)
}

// NewPolynomialLR decays the learning rate polynomially towards EndLR.
func NewPolynomialLR(opt *Optimizer, cfg PolynomialLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewPolynomialLR(opt, cfg, opts...)
}

// NewCosineAnnealingLR anneals the learning rate along a cosine curve.
func NewCosineAnnealingLR(opt *Optimizer, cfg CosineAnnealingLRConfig, opts ...SchedulerOption) (*LRScheduler, error) {
	return optim.NewCosineAnnealingLR(opt, cfg, opts...)
}

// NewSequentialLR runs schedulers in turn, switching at each milestone.
func NewSequentialLR(schedulers []Scheduler, milestones []int, opts ...SchedulerOption) (*SequentialLR, error) {
	return optim.NewSequentialLR(schedulers, milestones, opts...)
}
