// Package optim implements gradient-based optimization of nested parameter
// trees.
//
// This package provides:
//   - Optimizer: the engine that walks parameter and gradient trees, keeps
//     per-parameter state and delegates the arithmetic to a Rule
//   - Rules: SGD, RMSprop, Adagrad, AdaDelta, Adam, AdamW, Adamax, Lion and
//     Adafactor
//   - Schedulers: epoch-indexed learning rate policies bound to an Optimizer
//
// Design inspired by PyTorch's torch.optim, with state kept as a tree that
// mirrors the parameters so it can be inspected, saved and restored.
//
// Example usage:
//
//	opt, err := optim.NewAdam(optim.DefaultAdamConfig())
//	if err != nil {
//	    return err
//	}
//
//	for step := range steps {
//	    grads := computeGradients(model, batch)
//	    if err := opt.Update(model, grads); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/born-ml/descent/internal/parallel"
	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// LearningRateKey is the reserved top-level state key holding the learning rate.
const LearningRateKey = "learning_rate"

// Rule is the per-parameter update policy plugged into an Optimizer.
//
// A Rule is stateless itself: everything that changes between steps lives in
// the Slot the engine passes in.
type Rule interface {
	// Name identifies the rule in logs and errors.
	Name() string

	// InitSingle populates an empty slot for param. The labels it adds are the
	// only ones ApplySingle may replace.
	InitSingle(param *tensor.Array, slot *Slot)

	// ApplySingle returns the updated parameter and writes the new state into
	// slot. lr is the engine's current learning rate.
	ApplySingle(grad, param *tensor.Array, slot *Slot, lr float64) *tensor.Array
}

// Model is anything that exposes its parameters as a tree and accepts a
// (possibly partial) tree of replacements.
type Model interface {
	Parameters() *tree.Tree
	Update(params *tree.Tree) error
}

// Optimizer applies a Rule to every leaf of a gradient tree.
//
// State is kept per parameter path. It is created lazily on the first
// ApplyGradients call (or explicitly with Init) and then persists for the
// lifetime of the optimizer.
//
// An Optimizer is not safe for concurrent use.
type Optimizer struct {
	rule        Rule
	lr          float32
	slots       map[string]*Slot
	layout      *tree.Tree // parameter structure the slots mirror
	initialized bool

	parallel parallel.Config
	logger   *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used for state lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParallel enables concurrent per-leaf updates.
//
// Leaves are independent, so the result is identical to sequential
// application.
func WithParallel(cfg parallel.Config) Option {
	return func(o *Optimizer) {
		o.parallel = cfg
	}
}

// New creates an optimizer for an arbitrary rule.
//
// The built-in constructors (NewSGD, NewAdam, ...) validate their
// hyperparameters and call New.
func New(rule Rule, learningRate float64, opts ...Option) *Optimizer {
	o := &Optimizer{
		rule:     rule,
		lr:       float32(learningRate),
		slots:    make(map[string]*Slot),
		parallel: parallel.Sequential(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "optim", "rule", rule.Name())
	return o
}

// Rule returns the update rule.
func (o *Optimizer) Rule() Rule {
	return o.rule
}

// LearningRate returns the current learning rate.
func (o *Optimizer) LearningRate() float32 {
	return o.lr
}

// SetLearningRate replaces the learning rate used by subsequent updates.
// The value is stored with float32 precision.
func (o *Optimizer) SetLearningRate(lr float64) {
	o.lr = float32(lr)
}

// Initialized reports whether parameter state exists.
func (o *Optimizer) Initialized() bool {
	return o.initialized
}

// Init creates fresh state for every leaf of params.
//
// params must be a dict. Calling Init again rebuilds the state for the given
// tree and discards entries for parameters it no longer contains.
func (o *Optimizer) Init(params *tree.Tree) error {
	if params == nil || params.Kind() != tree.KindDict {
		return invalidArgument("parameter tree root must be a dict")
	}
	if _, ok := params.Child(LearningRateKey); ok {
		return invalidArgument("parameter name %q is reserved", LearningRateKey)
	}

	slots := make(map[string]*Slot, params.NumLeaves())
	for _, e := range params.Leaves() {
		if e.Value == nil {
			return invalidArgument("parameter %q has no value", e.Path)
		}
		slot := &Slot{checked: true}
		o.rule.InitSingle(e.Value, slot)
		slots[e.Path] = slot
	}

	o.slots = slots
	o.layout = params
	o.initialized = true
	o.logger.Debug("optimizer state initialized", "parameters", len(slots))
	return nil
}

// ApplyGradients returns params updated with grads.
//
// grads may cover a subset of params; the result has the structure of grads
// and holds only the updated parameters. State is initialized from grads on
// the first call. Nothing is modified unless every leaf updates successfully.
func (o *Optimizer) ApplyGradients(grads, params *tree.Tree) (*tree.Tree, error) {
	if grads == nil || params == nil {
		return nil, invalidArgument("gradient and parameter trees are required")
	}
	if !o.initialized {
		if err := o.Init(grads); err != nil {
			return nil, err
		}
	}

	jobs, err := o.prepare(grads, params)
	if err != nil {
		return nil, err
	}

	lr := float64(o.lr)
	results := make([]*tensor.Array, len(jobs))
	next := make([]*Slot, len(jobs))
	err = parallel.For(len(jobs), func(i int) error {
		j := jobs[i]
		slot := j.slot.clone()
		updated, err := o.applySingle(j, slot, lr)
		if err != nil {
			return err
		}
		results[i], next[i] = updated, slot
		return nil
	}, o.parallel)
	if err != nil {
		return nil, err
	}

	for i, j := range jobs {
		o.slots[j.path] = next[i]
	}

	i := 0
	return tree.Map(func(string, []*tensor.Array) (*tensor.Array, error) {
		v := results[i]
		i++
		return v, nil
	}, grads)
}

// Update applies grads to the model's parameters and writes the result back.
func (o *Optimizer) Update(model Model, grads *tree.Tree) error {
	updated, err := o.ApplyGradients(grads, model.Parameters())
	if err != nil {
		return err
	}
	return errors.Wrap(model.Update(updated), "update model")
}

type leafJob struct {
	path        string
	grad, param *tensor.Array
	slot        *Slot
}

// prepare pairs every gradient with its parameter and state, validating
// shapes up front so the rule never sees mismatched operands.
func (o *Optimizer) prepare(grads, params *tree.Tree) ([]leafJob, error) {
	entries := grads.Leaves()
	jobs := make([]leafJob, 0, len(entries))
	for _, e := range entries {
		node, ok := params.Get(e.Path)
		if !ok || !node.IsLeaf() {
			return nil, shapeMismatch(e.Path, "no matching parameter")
		}
		param := node.Value()
		if e.Value == nil || param == nil {
			return nil, shapeMismatch(e.Path, "missing value")
		}
		if !e.Value.Shape().Equal(param.Shape()) {
			return nil, shapeMismatch(e.Path, "gradient shape %v, parameter shape %v", e.Value.Shape(), param.Shape())
		}
		slot, ok := o.slots[e.Path]
		if !ok {
			return nil, shapeMismatch(e.Path, "no optimizer state")
		}
		if !slot.checked {
			template := &Slot{}
			o.rule.InitSingle(param, template)
			if err := slot.matches(template); err != nil {
				return nil, errors.Wrapf(ErrShapeMismatch, "parameter %q: %v", e.Path, err)
			}
			slot.keys = template.keys
			slot.checked = true
		}
		jobs = append(jobs, leafJob{path: e.Path, grad: e.Value, param: param, slot: slot})
	}
	return jobs, nil
}

// applySingle runs the rule, turning tensor shape panics into errors.
func (o *Optimizer) applySingle(j leafJob, slot *Slot, lr float64) (updated *tensor.Array, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*tensor.ShapeError)
			if !ok {
				panic(r)
			}
			err = shapeMismatch(j.path, "%v", se)
		}
	}()
	return o.rule.ApplySingle(j.grad, j.param, slot, lr), nil
}

// State returns the full optimizer state as a tree.
//
// The root holds LearningRateKey plus one subtree per parameter position,
// mirroring the parameter structure. Each parameter maps to a dict of its
// state entries. The arrays are shared with the optimizer and must not be
// modified.
func (o *Optimizer) State() *tree.Tree {
	out := tree.NewDict().Set(LearningRateKey, tree.NewLeaf(tensor.Scalar(float64(o.lr), tensor.Float32)))
	if o.layout == nil {
		return out
	}
	nested, err := tree.Transform(o.layout, func(path string, _ *tensor.Array) (*tree.Tree, error) {
		return o.slots[path].toTree(), nil
	})
	if err != nil {
		// Transform only fails when the callback does.
		panic(err)
	}
	for _, key := range nested.Keys() {
		child, _ := nested.Child(key)
		out.Set(key, child)
	}
	return out
}

// SetState replaces the whole optimizer state.
//
// The tree must have the layout produced by State. A missing LearningRateKey
// keeps the current learning rate. Entries are checked against the rule on
// the next ApplyGradients call.
func (o *Optimizer) SetState(state *tree.Tree) error {
	if state == nil || state.Kind() != tree.KindDict {
		return invalidArgument("state root must be a dict")
	}

	lr := o.lr
	layout := tree.NewDict()
	slots := make(map[string]*Slot)
	for _, key := range state.Keys() {
		child, _ := state.Child(key)
		if key == LearningRateKey {
			v, err := scalarLeaf(child)
			if err != nil {
				return errors.Wrap(err, LearningRateKey)
			}
			lr = float32(v)
			continue
		}
		node, err := parseState(key, child, slots)
		if err != nil {
			return err
		}
		layout.Set(key, node)
	}

	o.lr = lr
	o.slots = slots
	o.layout = layout
	o.initialized = true
	o.logger.Debug("optimizer state loaded", "parameters", len(slots))
	return nil
}

// parseState rebuilds the parameter layout below path. A dict whose children
// are all leaves is a parameter's slot; an empty dict is the slot of a
// parameter whose rule keeps no state.
func parseState(path string, node *tree.Tree, slots map[string]*Slot) (*tree.Tree, error) {
	switch node.Kind() {
	case tree.KindLeaf:
		return nil, invalidArgument("state at %q must be a dict of entries, got a leaf", path)

	case tree.KindDict:
		if isSlot(node) {
			slot := &Slot{}
			for _, key := range node.Keys() {
				child, _ := node.Child(key)
				if err := slot.set(key, child.Value()); err != nil {
					return nil, errors.Wrapf(err, "parameter %q", path)
				}
			}
			slots[path] = slot
			return tree.NewLeaf(nil), nil
		}
		out := tree.NewDict()
		for _, key := range node.Keys() {
			child, _ := node.Child(key)
			sub, err := parseState(tree.Join(path, key), child, slots)
			if err != nil {
				return nil, err
			}
			out.Set(key, sub)
		}
		return out, nil

	default:
		out := tree.NewList()
		for i, item := range node.Items() {
			sub, err := parseState(tree.Join(path, strconv.Itoa(i)), item, slots)
			if err != nil {
				return nil, err
			}
			out.Append(sub)
		}
		return out, nil
	}
}

func isSlot(node *tree.Tree) bool {
	return lo.EveryBy(node.Keys(), func(key string) bool {
		child, _ := node.Child(key)
		return child.IsLeaf()
	})
}

func scalarLeaf(node *tree.Tree) (float64, error) {
	if !node.IsLeaf() || node.Value() == nil || node.Value().NumElements() != 1 {
		return 0, invalidArgument("expected a scalar leaf")
	}
	return node.Value().Item(), nil
}

// StateDict flattens the state into dotted keys such as "layer.weight.m".
func (o *Optimizer) StateDict() map[string]*tensor.Array {
	out := make(map[string]*tensor.Array, len(o.slots)*2+1)
	out[LearningRateKey] = tensor.Scalar(float64(o.lr), tensor.Float32)
	for path, slot := range o.slots {
		for _, e := range slot.entries() {
			out[tree.Join(path, e.Path)] = e.Value
		}
	}
	return out
}

// LoadStateDict restores state produced by StateDict.
//
// Parameters whose rule keeps no state have no keys in a StateDict and are
// not restored; use SetState for such rules. List positions in the original parameter tree come back as dicts keyed by
// index, which address the same paths.
func (o *Optimizer) LoadStateDict(dict map[string]*tensor.Array) error {
	lr := o.lr
	slots := make(map[string]*Slot)
	var paths []string

	keys := lo.Keys(dict)
	slices.Sort(keys)
	for _, key := range keys {
		value := dict[key]
		if key == LearningRateKey {
			if value == nil || value.NumElements() != 1 {
				return invalidArgument("%s must be a scalar", LearningRateKey)
			}
			lr = float32(value.Item())
			continue
		}
		idx := strings.LastIndex(key, tree.Separator)
		if idx <= 0 {
			return invalidArgument("state key %q has no parameter path", key)
		}
		path, entry := key[:idx], key[idx+1:]
		slot, ok := slots[path]
		if !ok {
			slot = &Slot{}
			slots[path] = slot
			paths = append(paths, path)
		}
		if err := slot.set(entry, value); err != nil {
			return errors.Wrapf(err, "parameter %q", path)
		}
	}

	slices.Sort(paths)
	layout, err := tree.FromLeaves(lo.Map(paths, func(p string, _ int) tree.Entry {
		return tree.Entry{Path: p}
	}))
	if err != nil {
		return errors.Wrapf(ErrInvalidArgument, "state layout: %v", err)
	}

	o.lr = lr
	o.slots = slots
	o.layout = layout
	o.initialized = true
	o.logger.Debug("optimizer state dict loaded", "parameters", len(slots))
	return nil
}
