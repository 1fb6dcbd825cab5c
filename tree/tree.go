// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tree provides the nested containers that hold model parameters,
// gradients and optimizer state.
//
// A Tree is a leaf holding an array, a dict with ordered string keys, or a
// list. Leaves are addressed by dotted paths such as "layers.0.weight".
//
// Example:
//
//	params := tree.NewDict().
//	    Set("weight", tree.NewLeaf(w)).
//	    Set("bias", tree.NewLeaf(b))
//
//	updated, err := tree.Map(func(path string, l []*tensor.Array) (*tensor.Array, error) {
//	    return l[0].Sub(l[1].MulScalar(0.1)), nil
//	}, params, grads)
package tree

import (
	"github.com/born-ml/descent/internal/tensor"
	"github.com/born-ml/descent/internal/tree"
)

// Tree is a nested container of arrays.
type Tree = tree.Tree

// Kind identifies the node type of a Tree.
type Kind = tree.Kind

// Node kinds.
const (
	KindLeaf Kind = tree.KindLeaf
	KindDict Kind = tree.KindDict
	KindList Kind = tree.KindList
)

// Entry is a leaf and its dotted path.
type Entry = tree.Entry

// LeafFunc computes a new leaf from the leaves found at the same path.
type LeafFunc = tree.LeafFunc

// Separator joins the components of a path.
const Separator = tree.Separator

// ErrStructureMismatch is returned when trees that must share a structure
// do not.
var ErrStructureMismatch = tree.ErrStructureMismatch

// NewLeaf creates a leaf holding value.
func NewLeaf(value *tensor.Array) *Tree {
	return tree.NewLeaf(value)
}

// NewDict creates an empty dict.
func NewDict() *Tree {
	return tree.NewDict()
}

// NewList creates a list of items.
func NewList(items ...*Tree) *Tree {
	return tree.NewList(items...)
}

// Map applies fn to the leaves of first and the matching leaves of rest.
func Map(fn LeafFunc, first *Tree, rest ...*Tree) (*Tree, error) {
	return tree.Map(fn, first, rest...)
}

// Transform replaces every leaf of t with the subtree returned by fn.
func Transform(t *Tree, fn func(path string, leaf *tensor.Array) (*Tree, error)) (*Tree, error) {
	return tree.Transform(t, fn)
}

// Merge returns dst with the leaves of src written at their positions.
func Merge(dst, src *Tree) (*Tree, error) {
	return tree.Merge(dst, src)
}

// Filter returns the leaves of t whose path satisfies keep.
func Filter(t *Tree, keep func(path string) bool) *Tree {
	return tree.Filter(t, keep)
}

// FromLeaves builds a dict-rooted tree from dotted paths.
func FromLeaves(entries []Entry) (*Tree, error) {
	return tree.FromLeaves(entries)
}

// Join appends key to a dotted path.
func Join(prefix, key string) string {
	return tree.Join(prefix, key)
}
