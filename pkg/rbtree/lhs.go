package rbtree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/pkg/gc"
)

// Lhs is a deferred-read/write proxy for a single key, returned by
// [Tree.Index]. Unlike [bptree.Lhs] (read-only), this proxy also supports
// in-place mutation, since writing through it must refresh the
// augmented-reduction cache on the path back to the root -- something a
// plain pointer-to-value can't trigger. AddAssign/SubAssign/MulAssign/
// DivAssign are free functions below, not methods, since they require a
// [Numeric] V that Lhs[K, V] itself isn't constrained to.
type Lhs[K cmp.Ordered, V any] struct {
	tree *Tree[K, V]
	key  K
}

func (l Lhs[K, V]) find() *node[K, V] {
	n := l.tree.root()
	for n != nil {
		switch {
		case l.key < n.key:
			n = n.left()
		case l.key > n.key:
			n = n.right()
		default:
			return n
		}
	}
	panic(&gc.LookupMissError{Container: "rbtree.Tree", Key: l.key})
}

// Value resolves the proxy, panicking with *gc.LookupMissError if the key
// is absent.
func (l Lhs[K, V]) Value() V {
	return l.find().value
}

// TryValue resolves the proxy without panicking.
func (l Lhs[K, V]) TryValue() (V, bool) {
	if it, ok := l.tree.Find(l.key); ok {
		return it.Value(), true
	}
	var zero V
	return zero, false
}

// Assign overwrites the entry's value and refreshes the reduction cache.
func (l Lhs[K, V]) Assign(value V) {
	n := l.find()
	n.value = value
	update(n, l.tree.reduceFn)
	recomputeUpward(n.parent(), l.tree.reduceFn)
}

// AddAssign adds delta to the entry's current value.
func AddAssign[K cmp.Ordered, V Numeric](l Lhs[K, V], delta V) {
	l.Assign(l.Value() + delta)
}

// SubAssign subtracts delta from the entry's current value.
func SubAssign[K cmp.Ordered, V Numeric](l Lhs[K, V], delta V) {
	l.Assign(l.Value() - delta)
}

// MulAssign multiplies the entry's current value by factor.
func MulAssign[K cmp.Ordered, V Numeric](l Lhs[K, V], factor V) {
	l.Assign(l.Value() * factor)
}

// DivAssign divides the entry's current value by divisor.
func DivAssign[K cmp.Ordered, V Numeric](l Lhs[K, V], divisor V) {
	l.Assign(l.Value() / divisor)
}

// ConstLhs is a read-only deferred-read proxy, for callers that want the
// bptree.Lhs-style guarantee that indexing never mutates the tree.
type ConstLhs[K cmp.Ordered, V any] struct {
	tree *Tree[K, V]
	key  K
}

// ConstIndex returns a read-only proxy for key, never inserting it.
func (t *Tree[K, V]) ConstIndex(key K) ConstLhs[K, V] {
	return ConstLhs[K, V]{tree: t, key: key}
}

// Value resolves the proxy, panicking with *gc.LookupMissError if the key
// is absent.
func (l ConstLhs[K, V]) Value() V {
	return l.tree.At(l.key)
}

// TryValue resolves the proxy without panicking.
func (l ConstLhs[K, V]) TryValue() (V, bool) {
	if it, ok := l.tree.Find(l.key); ok {
		return it.Value(), true
	}
	var zero V
	return zero, false
}
