package rbtree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/pkg/gc"
)

// Iterator is a bidirectional position within a Tree's inorder key
// sequence. The zero Iterator is not usable; obtain one from [Tree.Find],
// [Tree.Begin], [Tree.End], [Tree.FindIth], [Tree.FindGLB], or
// [Tree.FindLUB].
//
// beforeBegin distinguishes the one-before-the-first sentinel position
// (node == nil but not End) from End itself, so that decrementing End and
// incrementing the before-begin sentinel both behave correctly, instead of
// collapsing every nil position to the same iterator value.
type Iterator[K cmp.Ordered, V any] struct {
	tree        *Tree[K, V]
	node        *node[K, V]
	beforeBegin bool
}

// Begin returns an iterator at the smallest key, or End if the tree is
// empty.
func (t *Tree[K, V]) Begin() Iterator[K, V] {
	return Iterator[K, V]{tree: t, node: minNode(t.root())}
}

// End returns the one-past-the-last sentinel iterator.
func (t *Tree[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{tree: t, node: nil}
}

// RBegin returns an iterator at the largest key, or the before-begin
// sentinel if the tree is empty.
func (t *Tree[K, V]) RBegin() Iterator[K, V] {
	if t.root() == nil {
		return Iterator[K, V]{tree: t, beforeBegin: true}
	}
	return Iterator[K, V]{tree: t, node: maxNode(t.root())}
}

// IsDereferenceable reports whether it points at a real entry (neither End
// nor the before-begin sentinel).
func (it Iterator[K, V]) IsDereferenceable() bool {
	return it.node != nil
}

func (it Iterator[K, V]) mustDeref() *node[K, V] {
	if it.node == nil {
		panic(&gc.IteratorMisuseError{Detail: "dereferenced a non-dereferenceable rbtree iterator"})
	}
	return it.node
}

// Key returns the entry's key, panicking with *gc.IteratorMisuseError if
// not dereferenceable.
func (it Iterator[K, V]) Key() K { return it.mustDeref().key }

// Value returns the entry's value, panicking with *gc.IteratorMisuseError
// if not dereferenceable.
func (it Iterator[K, V]) Value() V { return it.mustDeref().value }

// Next returns an iterator at the next key in order, or End if it was
// already at the last entry.
func (it Iterator[K, V]) Next() Iterator[K, V] {
	if it.beforeBegin {
		return it.tree.Begin()
	}
	n := it.mustDeref()
	return Iterator[K, V]{tree: it.tree, node: successor(n)}
}

// Prev returns an iterator at the previous key in order, or the
// before-begin sentinel if it was already at the first entry.
func (it Iterator[K, V]) Prev() Iterator[K, V] {
	if it.beforeBegin {
		return it
	}
	if it.node == nil {
		return it.tree.RBegin()
	}
	p := predecessor(it.node)
	if p == nil {
		return Iterator[K, V]{tree: it.tree, beforeBegin: true}
	}
	return Iterator[K, V]{tree: it.tree, node: p}
}
