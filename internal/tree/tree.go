// Package tree implements the nested containers that hold parameters,
// gradients and optimizer state.
//
// A Tree is a recursive sum type: a Leaf holding an array, a Dict mapping
// names to subtrees in insertion order, or a List of subtrees. Positions are
// addressed with dotted paths such as "layers.0.weight".
//
// Traversal order is fixed by the structure: dict entries in insertion order,
// list items by index. Every function in this package visits leaves in that
// order.
package tree

import (
	"strconv"
	"strings"

	"github.com/born-ml/descent/internal/tensor"
)

// Separator joins keys into paths.
const Separator = "."

// Kind identifies the variant of a Tree node.
type Kind uint8

// Tree node variants.
const (
	KindLeaf Kind = iota
	KindDict
	KindList
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindDict:
		return "dict"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Tree is a node of a nested parameter structure.
type Tree struct {
	kind  Kind
	value *tensor.Array
	keys  []string
	dict  map[string]*Tree
	items []*Tree
}

// Entry is a leaf together with its path.
type Entry struct {
	Path  string
	Value *tensor.Array
}

// NewLeaf creates a leaf node.
func NewLeaf(value *tensor.Array) *Tree {
	return &Tree{kind: KindLeaf, value: value}
}

// NewDict creates an empty dict node. Populate it with Set.
//
// Example:
//
//	params := tree.NewDict().
//	    Set("weight", tree.NewLeaf(w)).
//	    Set("bias", tree.NewLeaf(b))
func NewDict() *Tree {
	return &Tree{kind: KindDict, dict: make(map[string]*Tree)}
}

// NewList creates a list node holding items in order.
func NewList(items ...*Tree) *Tree {
	return &Tree{kind: KindList, items: append([]*Tree(nil), items...)}
}

// Set stores child under key and returns the dict for chaining.
// New keys are appended to the iteration order; existing keys keep their place.
// Panics if t is not a dict or key contains the path separator.
func (t *Tree) Set(key string, child *Tree) *Tree {
	if t.kind != KindDict {
		panic("tree: Set called on " + t.kind.String())
	}
	if key == "" || strings.Contains(key, Separator) {
		panic("tree: invalid key " + strconv.Quote(key))
	}
	if _, ok := t.dict[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.dict[key] = child
	return t
}

// Append adds items to a list node and returns it for chaining.
func (t *Tree) Append(items ...*Tree) *Tree {
	if t.kind != KindList {
		panic("tree: Append called on " + t.kind.String())
	}
	t.items = append(t.items, items...)
	return t
}

// Kind returns the node variant.
func (t *Tree) Kind() Kind {
	return t.kind
}

// IsLeaf reports whether t is a leaf.
func (t *Tree) IsLeaf() bool {
	return t.kind == KindLeaf
}

// Value returns the array of a leaf, or nil for container nodes.
func (t *Tree) Value() *tensor.Array {
	return t.value
}

// Keys returns the dict keys in iteration order.
func (t *Tree) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Child returns the dict entry for key.
func (t *Tree) Child(key string) (*Tree, bool) {
	if t.kind != KindDict {
		return nil, false
	}
	child, ok := t.dict[key]
	return child, ok
}

// Items returns the children of a list node.
func (t *Tree) Items() []*Tree {
	return append([]*Tree(nil), t.items...)
}

// Len returns the number of direct children (0 for leaves).
func (t *Tree) Len() int {
	switch t.kind {
	case KindDict:
		return len(t.keys)
	case KindList:
		return len(t.items)
	default:
		return 0
	}
}

// step returns the child addressed by one path component.
func (t *Tree) step(key string) (*Tree, bool) {
	switch t.kind {
	case KindDict:
		child, ok := t.dict[key]
		return child, ok
	case KindList:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t.items) {
			return nil, false
		}
		return t.items[i], true
	default:
		return nil, false
	}
}

// Get returns the node at a dotted path. The empty path returns t.
func (t *Tree) Get(path string) (*Tree, bool) {
	node := t
	if path == "" {
		return node, true
	}
	for _, key := range strings.Split(path, Separator) {
		next, ok := node.step(key)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Leaves returns every leaf in traversal order.
func (t *Tree) Leaves() []Entry {
	var entries []Entry
	t.walk("", func(path string, leaf *Tree) {
		entries = append(entries, Entry{Path: path, Value: leaf.value})
	})
	return entries
}

// Paths returns the path of every leaf in traversal order.
func (t *Tree) Paths() []string {
	var paths []string
	t.walk("", func(path string, _ *Tree) {
		paths = append(paths, path)
	})
	return paths
}

// NumLeaves returns the number of leaves.
func (t *Tree) NumLeaves() int {
	n := 0
	t.walk("", func(string, *Tree) { n++ })
	return n
}

func (t *Tree) walk(prefix string, fn func(path string, leaf *Tree)) {
	switch t.kind {
	case KindLeaf:
		fn(prefix, t)
	case KindDict:
		for _, key := range t.keys {
			t.dict[key].walk(Join(prefix, key), fn)
		}
	case KindList:
		for i, item := range t.items {
			item.walk(Join(prefix, strconv.Itoa(i)), fn)
		}
	}
}

// Join appends key to a path.
func Join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Separator + key
}
