//go:build go1.23

package bptree

import (
	"iter"

	"github.com/rconybea/ordinaltree/pkg/tuple"
	"github.com/rconybea/ordinaltree/pkg/xiter"
)

// All returns a range-over-func sequence of every (key, value) pair in
// ascending key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it := t.Begin(); it.IsDereferenceable(); it = it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Keys returns a sequence of every key in ascending order.
func (t *Tree[K, V]) Keys() iter.Seq[K] { return xiter.Keys(t.All()) }

// Values returns a sequence of every value, in ascending key order.
func (t *Tree[K, V]) Values() iter.Seq[V] { return xiter.Values(t.All()) }

// Pairs returns a sequence of every (key, value) entry packed as a
// [tuple.Tuple2], for callers that want a single value to range over
// instead of iter.Seq2's two-value form.
func (t *Tree[K, V]) Pairs() iter.Seq[tuple.Tuple2[K, V]] { return xiter.Pairs(t.All()) }
