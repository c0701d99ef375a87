package rbtree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/internal/debug"
	"github.com/rconybea/ordinaltree/pkg/gc"
	"github.com/rconybea/ordinaltree/pkg/opt"
	"github.com/rconybea/ordinaltree/pkg/tuple"
)

// rootRegistrar is implemented by allocators (concretely [gc.Collector])
// that need to scan a container's top-level root pointer directly, rather
// than discovering it only through the write barrier. A non-moving
// [gc.ArenaAlloc] never moves anything, so it has no use for this.
type rootRegistrar interface {
	RegisterRoot(slot *gc.Object)
}

// Tree is a red-black tree mapping ordered keys of type K to values of
// type V, augmented by reduceFn's associative reduction. Construct one
// with [New]; the zero Tree is not usable (reduceFn would be nil).
type Tree[K cmp.Ordered, V any] struct {
	rootObj   gc.Object
	size      int
	reduceFn  Reduce[V]
	debugFlag bool
	allocator gc.Allocator
}

// New constructs an empty tree using reduceFn for range-reduction queries.
// Every node is allocated through a, and every node-pointer store is routed
// through a.AssignMember; a nil a defaults to a private, non-collecting
// [gc.ArenaAlloc] so the tree always has a real allocator to talk to.
func New[K cmp.Ordered, V any](reduceFn Reduce[V], a gc.Allocator) *Tree[K, V] {
	if a == nil {
		a = gc.NewArenaAlloc("rbtree")
	}
	t := &Tree[K, V]{reduceFn: reduceFn, allocator: a}
	if rr, ok := a.(rootRegistrar); ok {
		rr.RegisterRoot(&t.rootObj)
	}
	return t
}

// NewDefault constructs an empty tree using [NullReduce], for callers that
// only need ordering and order-statistics, not range-reduction.
func NewDefault[K cmp.Ordered, V any](a gc.Allocator) *Tree[K, V] {
	return New[K, V](NullReduce[V]{}, a)
}

func (t *Tree[K, V]) root() *node[K, V] {
	if t.rootObj == nil {
		return nil
	}
	return t.rootObj.(*node[K, V])
}

func (t *Tree[K, V]) setRoot(n *node[K, V]) {
	t.rootObj = objectOf(n)
}

func (t *Tree[K, V]) Empty() bool         { return t.size == 0 }
func (t *Tree[K, V]) Size() int           { return t.size }
func (t *Tree[K, V]) DebugFlag() bool     { return t.debugFlag }
func (t *Tree[K, V]) SetDebugFlag(v bool) { t.debugFlag = v }

func (t *Tree[K, V]) log(op, format string, args ...any) {
	if t.debugFlag {
		debug.Log(nil, op, format, args...)
	}
}

func (t *Tree[K, V]) rotateLeft(x *node[K, V]) {
	y := x.right()
	setRight(t.allocator, x, y.left())
	if y.left() != nil {
		setParent(t.allocator, y.left(), x)
	}
	setParent(t.allocator, y, x.parent())
	if x.parent() == nil {
		t.setRoot(y)
	} else if x == x.parent().left() {
		setLeft(t.allocator, x.parent(), y)
	} else {
		setRight(t.allocator, x.parent(), y)
	}
	setLeft(t.allocator, y, x)
	setParent(t.allocator, x, y)
	update(x, t.reduceFn)
	update(y, t.reduceFn)
}

func (t *Tree[K, V]) rotateRight(x *node[K, V]) {
	y := x.left()
	setLeft(t.allocator, x, y.right())
	if y.right() != nil {
		setParent(t.allocator, y.right(), x)
	}
	setParent(t.allocator, y, x.parent())
	if x.parent() == nil {
		t.setRoot(y)
	} else if x == x.parent().right() {
		setRight(t.allocator, x.parent(), y)
	} else {
		setLeft(t.allocator, x.parent(), y)
	}
	setRight(t.allocator, y, x)
	setParent(t.allocator, x, y)
	update(x, t.reduceFn)
	update(y, t.reduceFn)
}

// Find returns an iterator at key, and whether it was present.
func (t *Tree[K, V]) Find(key K) (Iterator[K, V], bool) {
	n := t.root()
	for n != nil {
		switch {
		case key < n.key:
			n = n.left()
		case key > n.key:
			n = n.right()
		default:
			return Iterator[K, V]{tree: t, node: n}, true
		}
	}
	return t.End(), false
}

// TryFind returns the value for key, if present.
func (t *Tree[K, V]) TryFind(key K) opt.Option[V] {
	if it, ok := t.Find(key); ok {
		return opt.Some(it.Value())
	}
	return opt.None[V]()
}

// At returns the value for key, panicking with *gc.LookupMissError if
// absent.
func (t *Tree[K, V]) At(key K) V {
	if it, ok := t.Find(key); ok {
		return it.Value()
	}
	panic(&gc.LookupMissError{Container: "rbtree.Tree", Key: key})
}

// FindIth returns an iterator at the i'th smallest key (0-based).
func (t *Tree[K, V]) FindIth(i int) Iterator[K, V] {
	n := t.root()
	for n != nil {
		ls := sizeOf(n.left())
		switch {
		case i < ls:
			n = n.left()
		case i == ls:
			return Iterator[K, V]{tree: t, node: n}
		default:
			i -= ls + 1
			n = n.right()
		}
	}
	return t.End()
}

// FindGLB returns an iterator at the greatest key <= k (or < k if
// isClosed is false), maintaining the continuity property
// FindLUB(k, closed) == FindGLB(k, !closed).Next(), even when
// the glb iterator is not itself dereferenceable.
func (t *Tree[K, V]) FindGLB(k K, isClosed bool) Iterator[K, V] {
	var best *node[K, V]
	n := t.root()
	for n != nil {
		if compareGLB(k, n.key, isClosed) {
			best = n
			n = n.right()
		} else {
			n = n.left()
		}
	}
	if best == nil {
		return Iterator[K, V]{tree: t, beforeBegin: true}
	}
	return Iterator[K, V]{tree: t, node: best}
}

// compareGLB reports whether n.key qualifies as a candidate glb for k under
// the given closedness (n.key <= k if isClosed, n.key < k otherwise).
func compareGLB[K cmp.Ordered](k, nk K, isClosed bool) bool {
	if isClosed {
		return nk <= k
	}
	return nk < k
}

// FindLUB returns an iterator at the smallest key >= k (or > k if isClosed
// is false).
func (t *Tree[K, V]) FindLUB(k K, isClosed bool) Iterator[K, V] {
	return t.FindGLB(k, !isClosed).Next()
}

// ReduceLUB returns the reduction over every key in (-inf, lubKey) (or
// (-inf, lubKey] if isClosed), or reduceFn.Nil() if that range is empty.
func (t *Tree[K, V]) ReduceLUB(lubKey K, isClosed bool) V {
	acc := t.reduceFn.Nil()
	n := t.root()
	for n != nil {
		var include bool
		if isClosed {
			include = n.key <= lubKey
		} else {
			include = n.key < lubKey
		}
		if include {
			left := t.reduceFn.Nil()
			if n.left() != nil {
				left = n.left().reduced
			}
			acc = t.reduceFn.Combine(acc, t.reduceFn.Combine(left, t.reduceFn.Leaf(n.value)))
			n = n.right()
		} else {
			n = n.left()
		}
	}
	return acc
}

// FindSumGLB returns an iterator at the rightmost node N such that
// ReduceLUB(N.Key(), true) <= y under the numeric ordering of V, i.e. the
// greatest-lower-bound node under the monotone prefix-reduction order. If
// no node qualifies, the result is the before-begin sentinel. Callers must
// use a numeric V (e.g. via [SumReduce]); see [anyGreater].
func (t *Tree[K, V]) FindSumGLB(y V) Iterator[K, V] {
	var best *node[K, V]
	acc := t.reduceFn.Nil()
	n := t.root()
	for n != nil {
		left := t.reduceFn.Nil()
		if n.left() != nil {
			left = n.left().reduced
		}
		candidate := t.reduceFn.Combine(acc, t.reduceFn.Combine(left, t.reduceFn.Leaf(n.value)))
		if !anyGreater(candidate, y) {
			best = n
			acc = candidate
			n = n.right()
		} else {
			n = n.left()
		}
	}
	if best == nil {
		return Iterator[K, V]{tree: t, beforeBegin: true}
	}
	return Iterator[K, V]{tree: t, node: best}
}

// anyGreater compares two accumulated values for FindSumGLB's monotone
// search. Go generics have no single numeric-ordered constraint that also
// fits an arbitrary V, so this falls back to a type switch over the
// concrete numeric types [Numeric] allows; callers not using a numeric
// reduction should not call FindSumGLB.
func anyGreater(a, b any) bool {
	switch av := a.(type) {
	case int:
		return av > b.(int)
	case int8:
		return av > b.(int8)
	case int16:
		return av > b.(int16)
	case int32:
		return av > b.(int32)
	case int64:
		return av > b.(int64)
	case uint:
		return av > b.(uint)
	case uint8:
		return av > b.(uint8)
	case uint16:
		return av > b.(uint16)
	case uint32:
		return av > b.(uint32)
	case uint64:
		return av > b.(uint64)
	case float32:
		return av > b.(float32)
	case float64:
		return av > b.(float64)
	default:
		panic(&gc.InvariantViolationError{Detail: "FindSumGLB requires a numeric reduction value type"})
	}
}

// Index returns a deferred-write proxy for key: indexing a missing key
// auto-creates it with V's zero value. Unlike the B+-tree's read-only
// [bptree.Lhs], this proxy also supports in-place update
// (Assign/AddAssign/...), since the red-black tree's reduction cache must
// be refreshed on every write.
func (t *Tree[K, V]) Index(key K) Lhs[K, V] {
	if _, ok := t.Find(key); !ok {
		var zero V
		t.Insert(key, zero)
	}
	return Lhs[K, V]{tree: t, key: key}
}

// Insert inserts (key, value), or overwrites the value of an existing key
// in place. Returns an iterator at the resulting entry and whether a new
// entry was created.
func (t *Tree[K, V]) Insert(key K, value V) tuple.Tuple2[Iterator[K, V], bool] {
	var parent *node[K, V]
	n := t.root()
	for n != nil {
		parent = n
		switch {
		case key < n.key:
			n = n.left()
		case key > n.key:
			n = n.right()
		default:
			n.value = value
			update(n, t.reduceFn)
			recomputeUpward(n.parent(), t.reduceFn)
			return tuple.New2(Iterator[K, V]{tree: t, node: n}, false)
		}
	}

	z := newNode(t.allocator, key, value, red, parent)
	if parent == nil {
		t.setRoot(z)
	} else if key < parent.key {
		setLeft(t.allocator, parent, z)
	} else {
		setRight(t.allocator, parent, z)
	}
	t.size++
	update(z, t.reduceFn)
	t.insertFixup(z)
	recomputeUpward(z, t.reduceFn)
	t.log("insert", "inserted key %v", key)
	return tuple.New2(Iterator[K, V]{tree: t, node: z}, true)
}

func (t *Tree[K, V]) insertFixup(z *node[K, V]) {
	for colorOf(z.parent()) == red {
		gp := z.parent().parent()
		if z.parent() == gp.left() {
			uncle := gp.right()
			if colorOf(uncle) == red {
				z.parent().color = black
				uncle.color = black
				gp.color = red
				z = gp
				continue
			}
			if z == z.parent().right() {
				z = z.parent()
				t.rotateLeft(z)
			}
			z.parent().color = black
			gp.color = red
			t.rotateRight(gp)
		} else {
			uncle := gp.left()
			if colorOf(uncle) == red {
				z.parent().color = black
				uncle.color = black
				gp.color = red
				z = gp
				continue
			}
			if z == z.parent().left() {
				z = z.parent()
				t.rotateRight(z)
			}
			z.parent().color = black
			gp.color = red
			t.rotateLeft(gp)
		}
	}
	t.root().color = black
}

// Erase removes key, reporting whether it was present.
func (t *Tree[K, V]) Erase(key K) bool {
	n := t.root()
	for n != nil && n.key != key {
		if key < n.key {
			n = n.left()
		} else {
			n = n.right()
		}
	}
	if n == nil {
		return false
	}
	t.log("erase", "removing key %v", key)
	t.deleteNode(n)
	t.size--
	return true
}

// deleteNode implements the standard augmented red-black delete: splice
// out y (either n itself, or n's successor when n has two children),
// transplant y's single child into its place, run the six-case fixup if y
// was black, then refresh size/reduced from the point of the splice up to
// the root.
func (t *Tree[K, V]) deleteNode(n *node[K, V]) {
	y := n
	yOriginalColor := colorOf(y)
	var x, xParent *node[K, V]

	switch {
	case n.left() == nil:
		x = n.right()
		xParent = n.parent()
		t.transplant(n, n.right())
	case n.right() == nil:
		x = n.left()
		xParent = n.parent()
		t.transplant(n, n.left())
	default:
		y = minNode(n.right())
		yOriginalColor = colorOf(y)
		x = y.right()
		if y.parent() == n {
			xParent = y
		} else {
			xParent = y.parent()
			t.transplant(y, y.right())
			setRight(t.allocator, y, n.right())
			setParent(t.allocator, y.right(), y)
		}
		t.transplant(n, y)
		setLeft(t.allocator, y, n.left())
		setParent(t.allocator, y.left(), y)
		y.color = n.color
	}

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}

	start := xParent
	if start == nil {
		start = t.root()
	}
	recomputeUpward(start, t.reduceFn)
}

func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
	switch {
	case u.parent() == nil:
		t.setRoot(v)
	case u == u.parent().left():
		setLeft(t.allocator, u.parent(), v)
	default:
		setRight(t.allocator, u.parent(), v)
	}
	if v != nil {
		setParent(t.allocator, v, u.parent())
	}
}

// deleteFixup restores the red-black invariants after a black node was
// spliced out, given the node (x, possibly nil) that took its place and
// x's parent (passed explicitly since x itself may be nil).
func (t *Tree[K, V]) deleteFixup(x, xParent *node[K, V]) {
	for x != t.root() && colorOf(x) == black {
		if x == xParent.left() {
			w := xParent.right()
			if colorOf(w) == red {
				w.color = black
				xParent.color = red
				t.rotateLeft(xParent)
				w = xParent.right()
			}
			if colorOf(w.left()) == black && colorOf(w.right()) == black {
				w.color = red
				x = xParent
				xParent = x.parent()
				continue
			}
			if colorOf(w.right()) == black {
				if w.left() != nil {
					w.left().color = black
				}
				w.color = red
				t.rotateRight(w)
				w = xParent.right()
			}
			w.color = xParent.color
			xParent.color = black
			if w.right() != nil {
				w.right().color = black
			}
			t.rotateLeft(xParent)
			x = t.root()
			xParent = nil
		} else {
			w := xParent.left()
			if colorOf(w) == red {
				w.color = black
				xParent.color = red
				t.rotateRight(xParent)
				w = xParent.left()
			}
			if colorOf(w.right()) == black && colorOf(w.left()) == black {
				w.color = red
				x = xParent
				xParent = x.parent()
				continue
			}
			if colorOf(w.left()) == black {
				if w.right() != nil {
					w.right().color = black
				}
				w.color = red
				t.rotateLeft(w)
				w = xParent.left()
			}
			w.color = xParent.color
			xParent.color = black
			if w.left() != nil {
				w.left().color = black
			}
			t.rotateRight(xParent)
			x = t.root()
			xParent = nil
		}
	}
	if x != nil {
		x.color = black
	}
}

// Clear discards every entry.
func (t *Tree[K, V]) Clear() {
	t.setRoot(nil)
	t.size = 0
	if gc.HasTrivialDeallocate(t.allocator) {
		t.allocator.Clear()
	}
}

// VerifyOK walks the whole tree checking every augmented red-black
// invariant, panicking with *gc.InvariantViolationError on the first
// violation found:
//
//   - root has a nil parent, and size==0 iff root==nil
//   - every child's parent pointer points back at its parent
//   - the root is black
//   - no red node has a red child
//   - every root-to-nil-leaf path has the same black-height
//   - inorder key sequence is strictly increasing
//   - every node's cached size equals 1 + left.size + right.size
//   - the tree's size equals the root subtree's size (or 0 for an empty
//     tree)
func (t *Tree[K, V]) VerifyOK() bool {
	root := t.root()
	if root == nil {
		if t.size != 0 {
			panic(&gc.InvariantViolationError{Detail: "empty tree has nonzero size"})
		}
		return true
	}
	if root.parent() != nil {
		panic(&gc.InvariantViolationError{Detail: "root has non-nil parent"})
	}
	if colorOf(root) != black {
		panic(&gc.InvariantViolationError{Detail: "root is not black"})
	}
	var lastKey *K
	_ = verifyNode(root, &lastKey)
	if root.size != t.size {
		panic(&gc.InvariantViolationError{Detail: "tree size does not match root subtree size"})
	}
	return true
}

// verifyNode recursively checks n's subtree, returning its black-height.
func verifyNode[K cmp.Ordered, V any](n *node[K, V], lastKey **K) int {
	if n == nil {
		return 1
	}
	if n.left() != nil {
		if n.left().parent() != n {
			panic(&gc.InvariantViolationError{Detail: "left child's parent pointer is wrong"})
		}
		if n.left().key >= n.key {
			panic(&gc.InvariantViolationError{Detail: "left child key is not less than parent"})
		}
	}
	if n.right() != nil {
		if n.right().parent() != n {
			panic(&gc.InvariantViolationError{Detail: "right child's parent pointer is wrong"})
		}
		if n.right().key <= n.key {
			panic(&gc.InvariantViolationError{Detail: "right child key is not greater than parent"})
		}
	}
	if n.color == red {
		if colorOf(n.left()) == red || colorOf(n.right()) == red {
			panic(&gc.InvariantViolationError{Detail: "red node has a red child"})
		}
	}

	leftBH := verifyNode(n.left(), lastKey)

	if *lastKey != nil && **lastKey >= n.key {
		panic(&gc.InvariantViolationError{Detail: "inorder keys are not strictly increasing"})
	}
	k := n.key
	*lastKey = &k

	rightBH := verifyNode(n.right(), lastKey)
	if leftBH != rightBH {
		panic(&gc.InvariantViolationError{Detail: "black-height differs between left and right subtrees"})
	}

	if n.size != 1+sizeOf(n.left())+sizeOf(n.right()) {
		panic(&gc.InvariantViolationError{Detail: "cached size does not match subtree"})
	}

	bh := leftBH
	if n.color == black {
		bh++
	}
	return bh
}
