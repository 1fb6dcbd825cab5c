package optim

import (
	"fmt"
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// Label names a tensor held in a Slot.
type Label uint8

// Slot labels used by the built-in rules.
const (
	LabelV           Label = iota // velocity or second moment
	LabelU                        // accumulated squared deltas (AdaDelta)
	LabelM                        // first moment
	LabelExpAvgSqRow              // factored second moment, row statistics (Adafactor)
	LabelExpAvgSqCol              // factored second moment, column statistics (Adafactor)
	LabelExpAvgSq                 // unfactored second moment (Adafactor)
	LabelExpAvg                   // first moment (Adafactor)
	numLabels
)

// StepKey is the state key of the per-parameter step counter.
const StepKey = "step"

var labelNames = [numLabels]string{
	LabelV:           "v",
	LabelU:           "u",
	LabelM:           "m",
	LabelExpAvgSqRow: "exp_avg_sq_row",
	LabelExpAvgSqCol: "exp_avg_sq_col",
	LabelExpAvgSq:    "exp_avg_sq",
	LabelExpAvg:      "exp_avg",
}

// String returns the state key of the label.
func (l Label) String() string {
	if l < numLabels {
		return labelNames[l]
	}
	return fmt.Sprintf("Label(%d)", uint8(l))
}

// ParseLabel returns the label with the given state key.
func ParseLabel(name string) (Label, bool) {
	for l, n := range labelNames {
		if n == name {
			return Label(l), true
		}
	}
	return 0, false
}

// Slot is the optimizer state of a single parameter.
//
// The set of labels is fixed by the rule's InitSingle: ApplySingle replaces
// tensors with Set but never adds new ones.
type Slot struct {
	tensors [numLabels]*tensor.Array
	step    int
	hasStep bool
	keys    []string // state keys in the order they were added

	// checked records that the slot matched its parameter's template.
	checked bool
}

// Init adds a tensor under label. Rules call it from InitSingle.
func (s *Slot) Init(label Label, value *tensor.Array) {
	if s.tensors[label] == nil {
		s.keys = append(s.keys, labelNames[label])
	}
	s.tensors[label] = value
}

// InitStep adds the step counter with an initial value of zero.
func (s *Slot) InitStep() {
	if !s.hasStep {
		s.keys = append(s.keys, StepKey)
	}
	s.hasStep = true
	s.step = 0
}

// Get returns the tensor stored under label, or nil.
func (s *Slot) Get(label Label) *tensor.Array {
	return s.tensors[label]
}

// Set replaces the tensor stored under label.
// Panics if the label was not initialized.
func (s *Slot) Set(label Label, value *tensor.Array) {
	if s.tensors[label] == nil {
		panic(fmt.Sprintf("optim: slot has no %q entry", label))
	}
	s.tensors[label] = value
}

// Has reports whether the slot holds a tensor under label.
func (s *Slot) Has(label Label) bool {
	return s.tensors[label] != nil
}

// Step returns the step counter.
func (s *Slot) Step() int {
	return s.step
}

// SetStep replaces the step counter.
// Panics if the slot has no step counter.
func (s *Slot) SetStep(step int) {
	if !s.hasStep {
		panic("optim: slot has no step counter")
	}
	s.step = step
}

// Keys returns the state keys present in the slot in the order they were
// added.
func (s *Slot) Keys() []string {
	return slices.Clone(s.keys)
}

func (s *Slot) clone() *Slot {
	c := *s
	c.keys = slices.Clone(s.keys)
	return &c
}

// entries returns the slot contents as scalar and array leaves in Keys order.
func (s *Slot) entries() []tree.Entry {
	out := make([]tree.Entry, 0, len(s.keys))
	for _, key := range s.keys {
		if key == StepKey {
			out = append(out, tree.Entry{Path: StepKey, Value: tensor.Scalar(float64(s.step), tensor.Float64)})
			continue
		}
		label, _ := ParseLabel(key)
		out = append(out, tree.Entry{Path: key, Value: s.tensors[label]})
	}
	return out
}

// toTree renders the slot as a dict of leaves.
func (s *Slot) toTree() *tree.Tree {
	d := tree.NewDict()
	for _, e := range s.entries() {
		d.Set(e.Path, tree.NewLeaf(e.Value))
	}
	return d
}

// set stores one exported entry back into the slot.
func (s *Slot) set(key string, value *tensor.Array) error {
	if value == nil {
		return invalidArgument("state entry %q has no value", key)
	}
	if key == StepKey {
		if value.NumElements() != 1 {
			return invalidArgument("step counter must be a scalar, got shape %v", value.Shape())
		}
		step := value.Item()
		if step < 0 || step != math.Trunc(step) {
			return invalidArgument("step counter must be a non-negative integer, got %v", step)
		}
		if !s.hasStep {
			s.keys = append(s.keys, StepKey)
		}
		s.hasStep = true
		s.step = int(step)
		return nil
	}
	label, ok := ParseLabel(key)
	if !ok {
		return invalidArgument("unknown state entry %q", key)
	}
	if s.tensors[label] == nil {
		s.keys = append(s.keys, key)
	}
	s.tensors[label] = value
	return nil
}

// matches reports the first difference between the slot and a template built
// by the rule for the same parameter.
func (s *Slot) matches(template *Slot) error {
	if s.hasStep != template.hasStep {
		return errors.Errorf("state keys %v, want %v", s.Keys(), template.Keys())
	}
	for l := range s.tensors {
		got, want := s.tensors[l], template.tensors[l]
		switch {
		case (got == nil) != (want == nil):
			return errors.Errorf("state keys %v, want %v", s.Keys(), template.Keys())
		case got != nil && !got.Shape().Equal(want.Shape()):
			return errors.Errorf("state %q has shape %v, want %v", labelNames[l], got.Shape(), want.Shape())
		}
	}
	return nil
}
