package bptree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/pkg/gc"
)

// Lhs is a read-only deferred-read proxy returned by [Tree.Index].
// The B+-tree only gets this const form: unlike the red-black tree,
// nothing in this package needs operator[] to auto-vivify a missing key
// with a default value, so there is no mutable counterpart.
type Lhs[K cmp.Ordered, V any] struct {
	tree *Tree[K, V]
	key  K
}

// Value resolves the proxy, panicking with *gc.LookupMissError if the key
// is absent.
func (l Lhs[K, V]) Value() V {
	if it, ok := l.tree.Find(l.key); ok {
		return it.Value()
	}
	panic(&gc.LookupMissError{Container: "bptree.Tree", Key: l.key})
}

// TryValue resolves the proxy without panicking.
func (l Lhs[K, V]) TryValue() (V, bool) {
	it, ok := l.tree.Find(l.key)
	if !ok {
		var zero V
		return zero, false
	}
	return it.Value(), true
}
