package tree

import (
	"strconv"
)

// Filter returns the part of t whose leaf paths satisfy keep.
//
// Dict entries without kept leaves are dropped. List items keep their
// positions: a list is cut after its last kept item and dropped items before
// it become empty dicts, which Merge treats as placeholders. A tree without
// kept leaves yields an empty node of the root's kind.
func Filter(t *Tree, keep func(path string) bool) *Tree {
	out, ok := filter("", t, keep)
	if !ok {
		if t.kind == KindList {
			return NewList()
		}
		return NewDict()
	}
	return out
}

func filter(path string, t *Tree, keep func(string) bool) (*Tree, bool) {
	switch t.kind {
	case KindLeaf:
		if !keep(path) {
			return nil, false
		}
		return t, true

	case KindDict:
		out := NewDict()
		for _, key := range t.keys {
			if child, ok := filter(Join(path, key), t.dict[key], keep); ok {
				out.Set(key, child)
			}
		}
		return out, len(out.keys) > 0

	default:
		items := make([]*Tree, len(t.items))
		last := -1
		for i, item := range t.items {
			if child, ok := filter(Join(path, strconv.Itoa(i)), item, keep); ok {
				items[i] = child
				last = i
			}
		}
		if last < 0 {
			return nil, false
		}
		out := NewList()
		for _, item := range items[:last+1] {
			if item == nil {
				item = NewDict()
			}
			out.items = append(out.items, item)
		}
		return out, true
	}
}
