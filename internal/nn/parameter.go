package nn

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/born-ml/descent/internal/tree"
)

// ErrUnknownParameter is returned when a path does not name a parameter or
// a group of parameters.
var ErrUnknownParameter = errors.New("nn: unknown parameter")

// Params holds a parameter tree and the set of frozen paths.
//
// Freezing a path excludes it, and everything below it, from
// TrainableParameters. Frozen parameters can still be replaced with Update.
//
// Example:
//
//	params := nn.NewParams(tree.NewDict().
//	    Set("encoder", encoder).
//	    Set("head", head))
//
//	// Fine-tune only the head
//	_ = params.Freeze("encoder")
//	grads := computeGradients(params.TrainableParameters())
type Params struct {
	tree   *tree.Tree
	frozen []string // frozen path prefixes
}

// NewParams wraps a parameter tree. The tree is not copied.
func NewParams(params *tree.Tree) *Params {
	return &Params{tree: params}
}

// Parameters returns the full parameter tree.
func (p *Params) Parameters() *tree.Tree {
	return p.tree
}

// Update merges params into the parameter tree.
func (p *Params) Update(params *tree.Tree) error {
	merged, err := tree.Merge(p.tree, params)
	if err != nil {
		return errors.Wrap(err, "nn: update parameters")
	}
	p.tree = merged
	return nil
}

// Freeze excludes the given paths from training. A path may name a single
// parameter or a subtree.
func (p *Params) Freeze(paths ...string) error {
	for _, path := range paths {
		if _, ok := p.tree.Get(path); !ok || path == "" {
			return errors.Wrapf(ErrUnknownParameter, "freeze %q", path)
		}
	}
	p.frozen = lo.Uniq(append(p.frozen, paths...))
	return nil
}

// Unfreeze makes the given paths trainable again. Paths that are not frozen
// are ignored.
func (p *Params) Unfreeze(paths ...string) {
	p.frozen = lo.Without(p.frozen, paths...)
}

// IsFrozen reports whether path, or one of its ancestors, is frozen.
func (p *Params) IsFrozen(path string) bool {
	return lo.SomeBy(p.frozen, func(f string) bool {
		return path == f || strings.HasPrefix(path, f+tree.Separator)
	})
}

// TrainableParameters returns the parameters that are not frozen.
func (p *Params) TrainableParameters() *tree.Tree {
	if len(p.frozen) == 0 {
		return p.tree
	}
	return tree.Filter(p.tree, func(path string) bool { return !p.IsFrozen(path) })
}
