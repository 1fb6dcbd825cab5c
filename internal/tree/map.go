package tree

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/descent/internal/tensor"
)

// ErrStructureMismatch is returned when parallel trees disagree at a position
// that is being visited.
var ErrStructureMismatch = errors.New("tree: structure mismatch")

func mismatch(path, format string, args ...any) error {
	where := path
	if where == "" {
		where = "<root>"
	}
	return errors.Wrapf(ErrStructureMismatch, "at %s: "+format, append([]any{where}, args...)...)
}

// LeafFunc computes a new leaf from the leaves found at the same position in
// every tree passed to Map. leaves[0] belongs to the first tree.
type LeafFunc func(path string, leaves []*tensor.Array) (*tensor.Array, error)

// Map applies fn to corresponding leaves of parallel trees and returns a tree
// shaped like first.
//
// Only the positions of first are visited. The other trees may be supersets
// (extra dict keys, longer lists) but must hold a leaf wherever first does;
// otherwise Map fails with ErrStructureMismatch. An error returned by fn stops
// the traversal and is returned as is.
//
// Example:
//
//	updated, err := tree.Map(func(_ string, l []*tensor.Array) (*tensor.Array, error) {
//	    return l[1].Sub(l[0].MulScalar(0.1)), nil
//	}, grads, params)
func Map(fn LeafFunc, first *Tree, rest ...*Tree) (*Tree, error) {
	nodes := make([]*Tree, 0, len(rest)+1)
	nodes = append(nodes, first)
	nodes = append(nodes, rest...)
	return mapNodes("", fn, nodes)
}

func mapNodes(path string, fn LeafFunc, nodes []*Tree) (*Tree, error) {
	first := nodes[0]
	for i, n := range nodes[1:] {
		if n == nil {
			return nil, mismatch(path, "tree %d has no node", i+1)
		}
		if n.kind != first.kind {
			return nil, mismatch(path, "tree %d is a %s, want %s", i+1, n.kind, first.kind)
		}
	}

	switch first.kind {
	case KindLeaf:
		leaves := make([]*tensor.Array, len(nodes))
		for i, n := range nodes {
			leaves[i] = n.value
		}
		value, err := fn(path, leaves)
		if err != nil {
			return nil, err
		}
		return NewLeaf(value), nil

	case KindDict:
		out := NewDict()
		for _, key := range first.keys {
			children := make([]*Tree, len(nodes))
			for i, n := range nodes {
				children[i] = n.dict[key]
			}
			child, err := mapNodes(Join(path, key), fn, children)
			if err != nil {
				return nil, err
			}
			out.Set(key, child)
		}
		return out, nil

	default:
		out := NewList()
		for idx := range first.items {
			children := make([]*Tree, len(nodes))
			for i, n := range nodes {
				if idx < len(n.items) {
					children[i] = n.items[idx]
				}
			}
			child, err := mapNodes(Join(path, strconv.Itoa(idx)), fn, children)
			if err != nil {
				return nil, err
			}
			out.items = append(out.items, child)
		}
		return out, nil
	}
}

// Transform replaces every leaf of t with the subtree returned by fn.
func Transform(t *Tree, fn func(path string, leaf *tensor.Array) (*Tree, error)) (*Tree, error) {
	return transform("", t, fn)
}

func transform(path string, t *Tree, fn func(string, *tensor.Array) (*Tree, error)) (*Tree, error) {
	switch t.kind {
	case KindLeaf:
		return fn(path, t.value)
	case KindDict:
		out := NewDict()
		for _, key := range t.keys {
			child, err := transform(Join(path, key), t.dict[key], fn)
			if err != nil {
				return nil, err
			}
			out.Set(key, child)
		}
		return out, nil
	default:
		out := NewList()
		for i, item := range t.items {
			child, err := transform(Join(path, strconv.Itoa(i)), item, fn)
			if err != nil {
				return nil, err
			}
			out.items = append(out.items, child)
		}
		return out, nil
	}
}

// Merge returns dst with the leaves of src written at their positions.
//
// src may be partial: positions it does not mention keep the value from dst,
// and an empty dict or list in src is a placeholder that keeps dst's subtree
// whatever its kind. Every other position in src must exist in dst with the
// same kind. dst itself is not modified; untouched subtrees are shared with
// the result.
func Merge(dst, src *Tree) (*Tree, error) {
	return merge("", dst, src)
}

func merge(path string, dst, src *Tree) (*Tree, error) {
	if dst == nil {
		return nil, mismatch(path, "no such position")
	}
	if src.kind != KindLeaf && src.Len() == 0 {
		return dst, nil
	}
	if dst.kind != src.kind {
		return nil, mismatch(path, "cannot merge %s into %s", src.kind, dst.kind)
	}

	switch src.kind {
	case KindLeaf:
		return NewLeaf(src.value), nil

	case KindDict:
		out := NewDict()
		for _, key := range dst.keys {
			out.Set(key, dst.dict[key])
		}
		for _, key := range src.keys {
			child, err := merge(Join(path, key), dst.dict[key], src.dict[key])
			if err != nil {
				return nil, err
			}
			out.Set(key, child)
		}
		return out, nil

	default:
		if len(src.items) > len(dst.items) {
			return nil, mismatch(path, "list of %d items cannot update list of %d", len(src.items), len(dst.items))
		}
		out := NewList(dst.items...)
		for i, item := range src.items {
			child, err := merge(Join(path, strconv.Itoa(i)), dst.items[i], item)
			if err != nil {
				return nil, err
			}
			out.items[i] = child
		}
		return out, nil
	}
}

// FromLeaves builds a dict-rooted tree from dotted paths.
//
// Every path component becomes a dict key, so list positions are rebuilt as
// dicts keyed "0", "1", ... Entries are inserted in the order given.
func FromLeaves(entries []Entry) (*Tree, error) {
	root := NewDict()
	for _, e := range entries {
		if e.Path == "" {
			return nil, mismatch("", "empty path")
		}
		keys := strings.Split(e.Path, Separator)
		if slices.Contains(keys, "") {
			return nil, mismatch(e.Path, "empty path component")
		}
		node := root
		for i, key := range keys[:len(keys)-1] {
			child, ok := node.dict[key]
			if !ok {
				child = NewDict()
				node.Set(key, child)
			} else if child.kind != KindDict {
				return nil, mismatch(strings.Join(keys[:i+1], Separator), "path used as leaf and as container")
			}
			node = child
		}
		last := keys[len(keys)-1]
		if _, exists := node.dict[last]; exists {
			return nil, mismatch(e.Path, "duplicate path")
		}
		node.Set(last, NewLeaf(e.Value))
	}
	return root, nil
}
