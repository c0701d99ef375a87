package bptree

import (
	"cmp"
	"sort"

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

// Tree is an order-statistics B+-tree mapping keys of type K to values of
// type V. The zero Tree is not usable; construct one with [New].
type Tree[K cmp.Ordered, V any] struct {
	properties Properties
	allocator  gc.Allocator

	rootObj gc.Object
	size    int

	leafBeginObj, leafEndObj gc.Object
}

// New constructs an empty tree with the given properties. Every node is
// allocated through a, and every node-pointer store is routed through
// a.AssignMember; a nil a defaults to a private, non-collecting
// [gc.ArenaAlloc] so the tree always has a real allocator to talk to.
func New[K cmp.Ordered, V any](properties Properties, a gc.Allocator) *Tree[K, V] {
	if a == nil {
		a = gc.NewArenaAlloc("bptree")
	}
	t := &Tree[K, V]{properties: properties, allocator: a}
	if rr, ok := a.(rootRegistrar); ok {
		rr.RegisterRoot(&t.rootObj)
	}
	return t
}

// NewDefault constructs an empty tree with [DefaultProperties] and a
// private arena allocator.
func NewDefault[K cmp.Ordered, V any]() *Tree[K, V] {
	return New[K, V](DefaultProperties(), nil)
}

func (t *Tree[K, V]) Empty() bool          { return t.size == 0 }
func (t *Tree[K, V]) Size() int            { return t.size }
func (t *Tree[K, V]) BranchingFactor() int { return t.properties.BranchingFactor() }
func (t *Tree[K, V]) DebugFlag() bool      { return t.properties.DebugFlag() }
func (t *Tree[K, V]) SetDebugFlag(v bool)  { t.properties.SetDebugFlag(v) }

func (t *Tree[K, V]) log(op, format string, args ...any) {
	if t.properties.DebugFlag() {
		debug.Log(nil, op, format, args...)
	}
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

func (t *Tree[K, V]) leafBegin() *node[K, V] {
	if t.leafBeginObj == nil {
		return nil
	}
	return t.leafBeginObj.(*node[K, V])
}

func (t *Tree[K, V]) leafEnd() *node[K, V] {
	if t.leafEndObj == nil {
		return nil
	}
	return t.leafEndObj.(*node[K, V])
}

func (t *Tree[K, V]) setLeafBegin(n *node[K, V]) { t.leafBeginObj = objectOf(n) }
func (t *Tree[K, V]) setLeafEnd(n *node[K, V])   { t.leafEndObj = objectOf(n) }

// findLeaf descends from the root to the leaf that would contain key.
func (t *Tree[K, V]) findLeaf(key K) *node[K, V] {
	n := t.root()
	for n != nil && !n.isLeaf {
		n = n.internalItems[n.findChildIx(key)].child()
	}
	return n
}

// Find returns an iterator positioned at key, and whether key is present.
func (t *Tree[K, V]) Find(key K) (Iterator[K, V], bool) {
	leaf := t.findLeaf(key)
	if leaf == nil {
		return t.End(), false
	}
	ix, found := leaf.findLeafItem(key)
	if !found {
		return t.End(), false
	}
	return Iterator[K, V]{node: leaf, ix: ix}, true
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
	panic(&gc.LookupMissError{Container: "bptree.Tree", Key: key})
}

// FindIth returns an iterator at the i'th smallest key (0-based), panicking
// with *gc.LookupMissError if i is out of range.
func (t *Tree[K, V]) FindIth(i int) Iterator[K, V] {
	if i < 0 || i >= t.size {
		panic(&gc.LookupMissError{Container: "bptree.Tree", Key: i})
	}
	n := t.root()
	for !n.isLeaf {
		for _, it := range n.internalItems {
			if i < it.child().size {
				n = it.child()
				break
			}
			i -= it.child().size
		}
	}
	return Iterator[K, V]{node: n, ix: i}
}

// Index returns a read-only deferred-read proxy for key.
func (t *Tree[K, V]) Index(key K) Lhs[K, V] {
	return Lhs[K, V]{tree: t, key: key}
}

// Insert inserts (key, value), or overwrites the value of an existing key
// in place. Returns an iterator at the resulting entry and whether a new
// entry was created.
func (t *Tree[K, V]) Insert(key K, value V) tuple.Tuple2[Iterator[K, V], bool] {
	if t.root() == nil {
		leaf := newLeaf[K, V](t.allocator)
		leaf.leafItems = append(leaf.leafItems, leafItem[K, V]{key, value})
		leaf.size = 1
		t.setRoot(leaf)
		t.setLeafBegin(leaf)
		t.setLeafEnd(leaf)
		t.size = 1
		t.log("insert", "created root leaf with key %v", key)
		return tuple.New2(Iterator[K, V]{node: leaf, ix: 0}, true)
	}

	leaf := t.findLeaf(key)
	ix, found := leaf.findLeafItem(key)
	if found {
		leaf.leafItems[ix].value = value
		return tuple.New2(Iterator[K, V]{node: leaf, ix: ix}, false)
	}

	leaf.leafItems = append(leaf.leafItems, leafItem[K, V]{})
	copy(leaf.leafItems[ix+1:], leaf.leafItems[ix:len(leaf.leafItems)-1])
	leaf.leafItems[ix] = leafItem[K, V]{key, value}
	leaf.size++
	t.size++
	updateAncestors(leaf)

	if leaf.nElt() <= t.properties.BranchingFactor() {
		t.log("insert", "key %v added to leaf, no split", key)
		return tuple.New2(Iterator[K, V]{node: leaf, ix: ix}, true)
	}

	// Leaf overflowed: split it and propagate the new sibling upward.
	upper := t.splitLeaf(leaf)
	var resultNode *node[K, V]
	var resultIx int
	if ix < len(leaf.leafItems) {
		resultNode, resultIx = leaf, ix
	} else {
		resultNode, resultIx = upper, ix-len(leaf.leafItems)
	}
	t.insertIntoParent(leaf, upper.glbKey(), upper)
	return tuple.New2(Iterator[K, V]{node: resultNode, ix: resultIx}, true)
}

// splitLeaf splits leaf's overflowing contents in half, linking a new
// right sibling into the leaf list, and returns the new sibling.
func (t *Tree[K, V]) splitLeaf(leaf *node[K, V]) *node[K, V] {
	n := len(leaf.leafItems)
	mid := (n + 1) / 2

	upper := newLeaf[K, V](t.allocator)
	upper.leafItems = append(upper.leafItems, leaf.leafItems[mid:]...)
	leaf.leafItems = leaf.leafItems[:mid]
	leaf.size = len(leaf.leafItems)
	upper.size = len(upper.leafItems)

	setLeafNext(t.allocator, upper, leaf.leafNext())
	setLeafPrev(t.allocator, upper, leaf)
	if leaf.leafNext() != nil {
		setLeafPrev(t.allocator, leaf.leafNext(), upper)
	} else {
		t.setLeafEnd(upper)
	}
	setLeafNext(t.allocator, leaf, upper)

	return upper
}

// insertIntoParent inserts (key, newChild) as the sibling immediately
// following oldChild in oldChild's parent, splitting and recursing upward
// as needed, and creating a new root if oldChild had no parent.
func (t *Tree[K, V]) insertIntoParent(oldChild *node[K, V], key K, newChild *node[K, V]) {
	parent := oldChild.parent()
	if parent == nil {
		t.setRoot(newInternal(t.allocator,
			mkItem(oldChild.glbKey(), oldChild),
			mkItem(key, newChild),
		))
		return
	}

	oldIx := -1
	for i, it := range parent.internalItems {
		if it.child() == oldChild {
			oldIx = i
			break
		}
	}
	items := make([]internalItem[K, V], 0, len(parent.internalItems)+1)
	items = append(items, parent.internalItems[:oldIx+1]...)
	items = append(items, mkItem(key, newChild))
	items = append(items, parent.internalItems[oldIx+1:]...)
	parent.internalItems = items
	setParent(t.allocator, newChild, parent)
	updateAncestors(newChild)

	if parent.nElt() <= t.properties.BranchingFactor() {
		return
	}

	n := len(parent.internalItems)
	mid := (n + 1) / 2
	upper := newInternal(t.allocator, parent.internalItems[mid:]...)
	parent.internalItems = parent.internalItems[:mid]
	total := 0
	for _, it := range parent.internalItems {
		total += it.child().size
	}
	parent.size = total
	t.insertIntoParent(parent, upper.glbKey(), upper)
}

// Erase removes key, reporting whether it was present.
func (t *Tree[K, V]) Erase(key K) bool {
	if t.root() == nil {
		return false
	}
	leaf := t.findLeaf(key)
	ix, found := leaf.findLeafItem(key)
	if !found {
		return false
	}
	leaf.leafItems = append(leaf.leafItems[:ix], leaf.leafItems[ix+1:]...)
	leaf.size--
	t.size--
	updateAncestors(leaf)
	t.log("erase", "removed key %v", key)

	if leaf == t.root() {
		if leaf.nElt() == 0 {
			t.setRoot(nil)
			t.setLeafBegin(nil)
			t.setLeafEnd(nil)
		}
		return true
	}

	t.rebalanceAfterErase(leaf)
	return true
}

func minFill(bf int) int { return (bf + 1) / 2 }

// rebalanceAfterErase restores the minimum-fill invariant for n (a non-root
// node that just lost an element), redistributing from a sibling, or
// merging with one and cascading the removal upward, preferring the right
// sibling over the left.
func (t *Tree[K, V]) rebalanceAfterErase(n *node[K, V]) {
	bf := t.properties.BranchingFactor()
	if n.nElt() >= minFill(bf) || n.parent() == nil {
		return
	}
	parent := n.parent()
	myIx := -1
	for i, it := range parent.internalItems {
		if it.child() == n {
			myIx = i
			break
		}
	}

	if myIx+1 < len(parent.internalItems) {
		right := parent.internalItems[myIx+1].child()
		if right.nElt() > minFill(bf) {
			t.redistribute(n, right)
			updateAncestors(n)
			updateAncestors(right)
			return
		}
	}
	if myIx > 0 {
		left := parent.internalItems[myIx-1].child()
		if left.nElt() > minFill(bf) {
			t.redistribute(left, n)
			updateAncestors(left)
			updateAncestors(n)
			return
		}
	}

	if myIx+1 < len(parent.internalItems) {
		right := parent.internalItems[myIx+1].child()
		t.mergeChildren(n, right)
		t.removeChild(parent, myIx+1)
	} else {
		left := parent.internalItems[myIx-1].child()
		t.mergeChildren(left, n)
		t.removeChild(parent, myIx)
	}

	if parent == t.root() {
		if len(parent.internalItems) == 1 {
			only := parent.internalItems[0].child()
			t.setRoot(only)
			setParent(t.allocator, only, nil)
		}
		return
	}
	t.rebalanceAfterErase(parent)
}

// redistribute moves one element across the boundary between adjacent
// siblings lo and hi (lo immediately precedes hi) to restore min-fill on
// whichever side is deficient, without changing either's identity.
func (t *Tree[K, V]) redistribute(lo, hi *node[K, V]) {
	if lo.isLeaf {
		if lo.nElt() < minFill(t.properties.BranchingFactor()) {
			moved := hi.leafItems[0]
			hi.leafItems = hi.leafItems[1:]
			lo.leafItems = append(lo.leafItems, moved)
		} else {
			moved := lo.leafItems[len(lo.leafItems)-1]
			lo.leafItems = lo.leafItems[:len(lo.leafItems)-1]
			hi.leafItems = append([]leafItem[K, V]{moved}, hi.leafItems...)
		}
		lo.size, hi.size = len(lo.leafItems), len(hi.leafItems)
		return
	}
	if lo.nElt() < minFill(t.properties.BranchingFactor()) {
		moved := hi.internalItems[0]
		hi.internalItems = hi.internalItems[1:]
		setParent(t.allocator, moved.child(), lo)
		lo.internalItems = append(lo.internalItems, moved)
	} else {
		moved := lo.internalItems[len(lo.internalItems)-1]
		lo.internalItems = lo.internalItems[:len(lo.internalItems)-1]
		setParent(t.allocator, moved.child(), hi)
		hi.internalItems = append([]internalItem[K, V]{moved}, hi.internalItems...)
	}
	recomputeSize(lo)
	recomputeSize(hi)
}

func recomputeSize[K cmp.Ordered, V any](n *node[K, V]) {
	if n.isLeaf {
		n.size = len(n.leafItems)
		return
	}
	total := 0
	for _, it := range n.internalItems {
		total += it.child().size
	}
	n.size = total
}

// mergeChildren merges hi's contents into lo, unlinking hi from the leaf
// list if they are leaves.
func (t *Tree[K, V]) mergeChildren(lo, hi *node[K, V]) {
	if lo.isLeaf {
		lo.leafItems = append(lo.leafItems, hi.leafItems...)
		setLeafNext(t.allocator, lo, hi.leafNext())
		if hi.leafNext() != nil {
			setLeafPrev(t.allocator, hi.leafNext(), lo)
		} else {
			t.setLeafEnd(lo)
		}
	} else {
		for _, it := range hi.internalItems {
			setParent(t.allocator, it.child(), lo)
		}
		lo.internalItems = append(lo.internalItems, hi.internalItems...)
	}
	recomputeSize(lo)
}

// removeChild deletes parent.internalItems[ix] (the now-empty merged-away
// child slot) and recomputes parent's size.
func (t *Tree[K, V]) removeChild(parent *node[K, V], ix int) {
	parent.internalItems = append(parent.internalItems[:ix], parent.internalItems[ix+1:]...)
	recomputeSize(parent)
}

// Clear discards every entry, returning the tree to its initial state.
func (t *Tree[K, V]) Clear() {
	t.setRoot(nil)
	t.size = 0
	t.setLeafBegin(nil)
	t.setLeafEnd(nil)
	if gc.HasTrivialDeallocate(t.allocator) {
		t.allocator.Clear()
	}
}

// VerifyOK checks every structural invariant the tree must maintain:
// balanced leaf depth, correct subtree sizes, correct glb keys, in-order
// leaf list, and min-fill everywhere but the root. It panics with
// *gc.InvariantViolationError on the first violation found.
func (t *Tree[K, V]) VerifyOK() bool {
	if t.root() == nil {
		if t.size != 0 || t.leafBegin() != nil || t.leafEnd() != nil {
			panic(&gc.InvariantViolationError{Detail: "empty tree has non-zero bookkeeping"})
		}
		return true
	}
	depth := t.verifyNode(t.root(), true)
	_ = depth
	if t.root().size != t.size {
		panic(&gc.InvariantViolationError{Detail: "root size does not match tree size"})
	}

	var keys []K
	for n := t.leafBegin(); n != nil; n = n.leafNext() {
		for _, it := range n.leafItems {
			keys = append(keys, it.key)
		}
	}
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }) {
		panic(&gc.InvariantViolationError{Detail: "leaf list out of order"})
	}
	if len(keys) != t.size {
		panic(&gc.InvariantViolationError{Detail: "leaf list length does not match tree size"})
	}
	return true
}

func (t *Tree[K, V]) verifyNode(n *node[K, V], isRoot bool) (leafDepth int) {
	bf := t.properties.BranchingFactor()
	if !isRoot && n.nElt() < minFill(bf) {
		panic(&gc.InvariantViolationError{Detail: "node below minimum fill"})
	}
	if n.nElt() > bf {
		panic(&gc.InvariantViolationError{Detail: "node above branching factor"})
	}
	if n.isLeaf {
		return 1
	}
	total := 0
	depth := -1
	for _, it := range n.internalItems {
		if it.child().parent() != n {
			panic(&gc.InvariantViolationError{Detail: "child parent pointer mismatch"})
		}
		if it.child().glbKey() != it.key {
			panic(&gc.InvariantViolationError{Detail: "glb key mismatch"})
		}
		total += it.child().size
		d := t.verifyNode(it.child(), false)
		if depth == -1 {
			depth = d
		} else if d != depth {
			panic(&gc.InvariantViolationError{Detail: "unbalanced leaf depth"})
		}
	}
	if total != n.size {
		panic(&gc.InvariantViolationError{Detail: "subtree size mismatch"})
	}
	return depth + 1
}
