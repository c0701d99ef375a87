// Package rbtree implements a red-black tree keyed by an ordered key type,
// augmented with an associative reduction over values: every node caches
// the combination of its own value with its children's cached reductions,
// so range-reduction queries (e.g. "sum of values in [lo, hi)") run in
// O(log n) instead of a full scan.
package rbtree

// Reduce is an associative reduction functor over values of type V: Nil is
// the identity, Leaf lifts a single value into the accumulator type, and
// Combine merges two accumulated results in left-to-right order. A
// concrete Reduce implementation must satisfy:
//
//	Combine(Nil(), x) == x == Combine(x, Nil())
//	Combine(Combine(a, b), c) == Combine(a, Combine(b, c))
type Reduce[V any] interface {
	Nil() V
	Leaf(value V) V
	Combine(lhs, rhs V) V
}

// NullReduce is the default, zero-cost reduction: every node's cached
// reduced value is the zero value of V, and queries that rely on it
// (ReduceLUB, FindSumGLB) are meaningless but harmless. Use it whenever a
// tree needs ordering and order-statistics but no custom accumulation.
type NullReduce[V any] struct{}

func (NullReduce[V]) Nil() V              { var z V; return z }
func (NullReduce[V]) Leaf(value V) V      { var z V; return z }
func (NullReduce[V]) Combine(_, _ V) V    { var z V; return z }

// SumReduce is a concrete reduction for numeric value types: the
// accumulated value over a range is the arithmetic sum of the values in
// it, giving order-statistics-style range-sum queries (ReduceLUB) for
// free. It is the natural worked example for the associative-reduction
// contract, used by this package's own tests.
type SumReduce[V Numeric] struct{}

func (SumReduce[V]) Nil() V             { var z V; return z }
func (SumReduce[V]) Leaf(value V) V     { return value }
func (SumReduce[V]) Combine(lhs, rhs V) V { return lhs + rhs }

// Numeric constrains value types SumReduce can accumulate.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
