package optim

import (
	"slices"

	"github.com/samber/lo"
)

// SequentialLR hands control between schedulers at milestone epochs.
//
// schedulers[0] is active until the first milestone; stepping to
// milestones[i] activates schedulers[i+1], which is then driven with the same
// absolute epoch. Only the active scheduler writes the learning rate.
// The offset of one is deliberate: with N schedulers there are N-1 milestones,
// and no milestone ever hands control back to schedulers[0].
//
// Example:
//
//	warmup, _ := optim.NewLambdaLR(opt, func(e int) float64 { return float64(e+1) / 5 })
//	decay, _ := optim.NewCosineAnnealingLR(opt, optim.CosineAnnealingLRConfig{TMax: 100})
//	sched, err := optim.NewSequentialLR([]optim.Scheduler{warmup, decay}, []int{5})
type SequentialLR struct {
	schedulers []Scheduler
	milestones []int
	current    int
	opt        *Optimizer
	baseLR     float64
	lastEpoch  int
}

// NewSequentialLR composes schedulers bound to the same optimizer.
//
// milestones must be strictly increasing with one entry fewer than
// schedulers. Construction steps to the starting epoch (default -1) through
// the first scheduler.
func NewSequentialLR(schedulers []Scheduler, milestones []int, opts ...SchedulerOption) (*SequentialLR, error) {
	if len(schedulers) == 0 {
		return nil, invalidArgument("sequential scheduler: no schedulers")
	}
	if slices.Contains(schedulers, nil) {
		return nil, invalidArgument("sequential scheduler: nil scheduler")
	}
	opt := schedulers[0].Optimizer()
	if opt == nil {
		return nil, invalidArgument("sequential scheduler: optimizer is nil")
	}
	if !lo.EveryBy(schedulers, func(s Scheduler) bool { return s.Optimizer() == opt }) {
		return nil, invalidArgument("sequential scheduler: schedulers are bound to different optimizers")
	}
	if len(milestones) != len(schedulers)-1 {
		return nil, invalidConfig("sequential_lr", "milestones", milestones, "need one fewer milestone than schedulers")
	}
	for i := 1; i < len(milestones); i++ {
		if milestones[i] <= milestones[i-1] {
			return nil, invalidConfig("sequential_lr", "milestones", milestones, "must be strictly increasing")
		}
	}

	o := applySchedulerOptions(opts)
	s := &SequentialLR{
		schedulers: slices.Clone(schedulers),
		milestones: slices.Clone(milestones),
		opt:        opt,
		baseLR:     float64(opt.LearningRate()),
	}
	s.StepTo(o.lastEpoch)
	return s, nil
}

// Step advances to the next epoch.
func (s *SequentialLR) Step() {
	s.StepTo(s.lastEpoch + 1)
}

// StepTo sets the epoch, switching schedulers when epoch is a milestone,
// and delegates to the active scheduler.
func (s *SequentialLR) StepTo(epoch int) {
	s.lastEpoch = epoch
	if idx := lo.IndexOf(s.milestones, epoch); idx >= 0 {
		s.current = idx + 1
		s.opt.logger.Debug("scheduler switched", "epoch", epoch, "index", s.current)
	}
	s.schedulers[s.current].StepTo(epoch)
}

// GetLR returns the active scheduler's learning rate.
func (s *SequentialLR) GetLR() float64 {
	return s.schedulers[s.current].GetLR()
}

// LastEpoch returns the current epoch.
func (s *SequentialLR) LastEpoch() int { return s.lastEpoch }

// BaseLR returns the learning rate captured at construction.
func (s *SequentialLR) BaseLR() float64 { return s.baseLR }

// Optimizer returns the shared optimizer.
func (s *SequentialLR) Optimizer() *Optimizer { return s.opt }

// Current returns the active scheduler.
func (s *SequentialLR) Current() Scheduler { return s.schedulers[s.current] }
