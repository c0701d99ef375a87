package bptree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/pkg/gc"
	"github.com/rconybea/ordinaltree/pkg/xunsafe/layout"
)

// leafItem is one (key, value) slot in a leaf node.
type leafItem[K cmp.Ordered, V any] struct {
	key   K
	value V
}

// internalItem is one (glb key, child) slot in an internal node: key is the
// smallest key reachable through child. Every child slot carries its own
// greatest-lower-bound key, rather than the n/n-1 separator-key convention
// some B-trees use.
//
// childObj boxes the child as a [gc.Object] rather than a bare *node: a
// node's internalItems slice is part of its own GC-managed state, so
// ForwardChildren must be able to relocate every slot. The field is only
// ever set once, at construction (mkItem), since items move between
// internal nodes by whole-struct copy (split/merge/redistribute) rather
// than by in-place child reassignment -- so there is no mutator-side store
// here for [gc.Allocator.AssignMember] to intercept.
type internalItem[K cmp.Ordered, V any] struct {
	key      K
	childObj gc.Object
}

func mkItem[K cmp.Ordered, V any](key K, child *node[K, V]) internalItem[K, V] {
	return internalItem[K, V]{key: key, childObj: objectOf(child)}
}

func (it internalItem[K, V]) child() *node[K, V] {
	if it.childObj == nil {
		return nil
	}
	return it.childObj.(*node[K, V])
}

// node is both the leaf and internal node representation. A single type
// covers both roles (isLeaf selects which slice is meaningful) rather than
// two node types behind an interface: one concrete struct with plain slices
// in place of a flexible-array-member trailing allocation.
//
// node is itself a GC-managed object: parentObj/leafPrevObj/leafNextObj and
// every internalItems[i].childObj are boxed as [gc.Object] rather than bare
// *node, so a collecting allocator can log cross-generation stores through
// [gc.Allocator.AssignMember] and relocate them all from
// [node.ForwardChildren] during a collection.
type node[K cmp.Ordered, V any] struct {
	gc.Header

	isLeaf    bool
	parentObj gc.Object

	leafItems     []leafItem[K, V]
	internalItems []internalItem[K, V]

	// leafPrevObj/leafNextObj link every leaf in key order, for O(1)
	// successor/predecessor iteration without walking back up to the parent.
	leafPrevObj, leafNextObj gc.Object

	// size is the ordinal statistic: the number of keys in the subtree
	// rooted at this node (leafItems count for a leaf, sum of children's
	// size for an internal node).
	size int
}

func newLeaf[K cmp.Ordered, V any](a gc.Allocator) *node[K, V] {
	gen := a.Alloc(nodeFootprint[K, V]())
	return &node[K, V]{Header: gc.NewHeader(a, gen, true), isLeaf: true}
}

func newInternal[K cmp.Ordered, V any](a gc.Allocator, items ...internalItem[K, V]) *node[K, V] {
	gen := a.Alloc(nodeFootprint[K, V]())
	n := &node[K, V]{Header: gc.NewHeader(a, gen, true), internalItems: items}
	for _, it := range items {
		c := it.child()
		setParent(a, c, n)
		n.size += c.size
	}
	return n
}

// ShallowSize implements [gc.Object].
func (n *node[K, V]) ShallowSize() int { return nodeFootprint[K, V]() }

// ShallowCopy implements [gc.Object]: it copies every scalar field plus the
// raw (pre-forwarding) identities of every object reference the node
// carries; ForwardChildren fixes those up once the copy has its own place
// in the collector's visited cache.
func (n *node[K, V]) ShallowCopy(dst gc.Allocator) gc.Object {
	gen := dst.AllocGCCopy(n)
	items := make([]internalItem[K, V], len(n.internalItems))
	copy(items, n.internalItems)
	leafItems := make([]leafItem[K, V], len(n.leafItems))
	copy(leafItems, n.leafItems)
	return &node[K, V]{
		Header:        gc.NewHeader(dst, gen, n.AfterCheckpoint()),
		isLeaf:        n.isLeaf,
		parentObj:     n.parentObj,
		leafItems:     leafItems,
		internalItems: items,
		leafPrevObj:   n.leafPrevObj,
		leafNextObj:   n.leafNextObj,
		size:          n.size,
	}
}

// ForwardChildren implements [gc.Object]: relocate parent, the leaf-list
// links, and every internal child slot through c.
func (n *node[K, V]) ForwardChildren(c *gc.Collector) int {
	if n.parentObj != nil {
		n.parentObj = c.Relocate(n.parentObj)
	}
	if n.leafPrevObj != nil {
		n.leafPrevObj = c.Relocate(n.leafPrevObj)
	}
	if n.leafNextObj != nil {
		n.leafNextObj = c.Relocate(n.leafNextObj)
	}
	for i := range n.internalItems {
		if n.internalItems[i].childObj != nil {
			n.internalItems[i].childObj = c.Relocate(n.internalItems[i].childObj)
		}
	}
	return n.ShallowSize()
}

// objectOf boxes n as a [gc.Object], reporting nil (not a non-nil interface
// wrapping a nil pointer) when n itself is nil.
func objectOf[K cmp.Ordered, V any](n *node[K, V]) gc.Object {
	if n == nil {
		return nil
	}
	return n
}

func (n *node[K, V]) parent() *node[K, V] {
	if n == nil || n.parentObj == nil {
		return nil
	}
	return n.parentObj.(*node[K, V])
}

func (n *node[K, V]) leafPrev() *node[K, V] {
	if n == nil || n.leafPrevObj == nil {
		return nil
	}
	return n.leafPrevObj.(*node[K, V])
}

func (n *node[K, V]) leafNext() *node[K, V] {
	if n == nil || n.leafNextObj == nil {
		return nil
	}
	return n.leafNextObj.(*node[K, V])
}

// setParent/setLeafPrev/setLeafNext route a node-pointer store through a's
// write barrier: a plain store for a non-collecting allocator, or a logged
// cross-generational store for a [gc.Collector].
func setParent[K cmp.Ordered, V any](a gc.Allocator, n, v *node[K, V]) {
	a.AssignMember(objectOf(n), &n.parentObj, objectOf(v))
}

func setLeafPrev[K cmp.Ordered, V any](a gc.Allocator, n, v *node[K, V]) {
	a.AssignMember(objectOf(n), &n.leafPrevObj, objectOf(v))
}

func setLeafNext[K cmp.Ordered, V any](a gc.Allocator, n, v *node[K, V]) {
	a.AssignMember(objectOf(n), &n.leafNextObj, objectOf(v))
}

func (n *node[K, V]) nElt() int {
	if n.isLeaf {
		return len(n.leafItems)
	}
	return len(n.internalItems)
}

// glbKey reports the smallest key reachable through n.
func (n *node[K, V]) glbKey() K {
	if n.isLeaf {
		return n.leafItems[0].key
	}
	return n.internalItems[0].key
}

// findLeafItem returns the index of the leaf item equal to key, and
// whether it was found; when not found, the index is the position key
// would be inserted at to keep leafItems sorted (the "lub" position).
func (n *node[K, V]) findLeafItem(key K) (ix int, found bool) {
	lo, hi := 0, len(n.leafItems)
	for lo < hi {
		mid := (lo + hi) / 2
		if n.leafItems[mid].key < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(n.leafItems) && n.leafItems[lo].key == key {
		return lo, true
	}
	return lo, false
}

// findChildIx returns the index of the child whose subtree scope must
// descend into to find key: the rightmost slot whose glb key is <= key
// (index 0 if key is smaller than every glb key present, which can only
// happen for a key smaller than the whole tree's minimum).
func (n *node[K, V]) findChildIx(key K) int {
	lo, hi := 0, len(n.internalItems)
	for lo < hi {
		mid := (lo + hi) / 2
		if n.internalItems[mid].key <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0
	}
	return lo - 1
}

// updateAncestors recomputes the glb key and subtree size of every ancestor
// of n, after n's own contents have changed. Rather than threading a delta
// and a "did the minimum change" flag through every call site, it simply
// recomputes bottom-up, which costs at most O(height * branchingFactor) and
// is trivial to get right.
func updateAncestors[K cmp.Ordered, V any](n *node[K, V]) {
	child := n
	for p := child.parent(); p != nil; p = p.parent() {
		total := 0
		for i := range p.internalItems {
			if p.internalItems[i].child() == child {
				p.internalItems[i].key = child.glbKey()
			}
			total += p.internalItems[i].child().size
		}
		p.size = total
		child = p
	}
}

func nodeFootprint[K cmp.Ordered, V any]() int {
	return layout.Of[node[K, V]]().Size
}
