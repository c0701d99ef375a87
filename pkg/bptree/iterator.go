package bptree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/pkg/gc"
)

// Iterator references one (key, value) pair in a [Tree], or the end()
// position. There is no before-begin position: Prev panics with
// *gc.IteratorMisuseError when retreating from the first key, and also
// when retreating from end(), which holds no link back to the last leaf.
// Forward and backward traversal moves across the leaf linked list, never
// back up through internal nodes.
type Iterator[K cmp.Ordered, V any] struct {
	node *node[K, V] // nil means end()
	ix   int
}

// IsDereferenceable reports whether Key/Value may be called.
func (it Iterator[K, V]) IsDereferenceable() bool {
	return it.node != nil && it.ix >= 0 && it.ix < len(it.node.leafItems)
}

func (it Iterator[K, V]) mustDeref() {
	if !it.IsDereferenceable() {
		panic(&gc.IteratorMisuseError{Detail: "dereferenced a non-dereferenceable bptree iterator"})
	}
}

// Key returns the key the iterator references.
func (it Iterator[K, V]) Key() K {
	it.mustDeref()
	return it.node.leafItems[it.ix].key
}

// Value returns the value the iterator references.
func (it Iterator[K, V]) Value() V {
	it.mustDeref()
	return it.node.leafItems[it.ix].value
}

// Next returns the iterator advanced by one position.
func (it Iterator[K, V]) Next() Iterator[K, V] {
	if it.node == nil {
		panic(&gc.IteratorMisuseError{Detail: "advanced past end() of bptree"})
	}
	if it.ix+1 < len(it.node.leafItems) {
		return Iterator[K, V]{node: it.node, ix: it.ix + 1}
	}
	return Iterator[K, V]{node: it.node.leafNext(), ix: 0}
}

// Prev returns the iterator retreated by one position.
func (it Iterator[K, V]) Prev() Iterator[K, V] {
	if it.ix > 0 {
		return Iterator[K, V]{node: it.node, ix: it.ix - 1}
	}
	if it.node == nil {
		panic(&gc.IteratorMisuseError{Detail: "retreated before begin() of bptree"})
	}
	prev := it.node.leafPrev()
	if prev == nil {
		panic(&gc.IteratorMisuseError{Detail: "retreated before begin() of bptree"})
	}
	return Iterator[K, V]{node: prev, ix: len(prev.leafItems) - 1}
}

// Begin returns an iterator at the smallest key.
func (t *Tree[K, V]) Begin() Iterator[K, V] {
	if t.leafBegin() == nil {
		return t.End()
	}
	return Iterator[K, V]{node: t.leafBegin(), ix: 0}
}

// End returns the past-the-end sentinel iterator.
func (t *Tree[K, V]) End() Iterator[K, V] { return Iterator[K, V]{} }

// RBegin returns a reverse-order iterator at the largest key.
func (t *Tree[K, V]) RBegin() Iterator[K, V] {
	if t.leafEnd() == nil {
		return t.End()
	}
	return Iterator[K, V]{node: t.leafEnd(), ix: len(t.leafEnd().leafItems) - 1}
}
