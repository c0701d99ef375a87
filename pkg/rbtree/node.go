package rbtree

import (
	"cmp"

	"github.com/rconybea/ordinaltree/pkg/gc"
	"github.com/rconybea/ordinaltree/pkg/xunsafe/layout"
)

type color int8

const (
	red color = iota
	black
)

// node is a red-black tree node, augmented with a subtree size (for
// order-statistics) and a cached reduction over its subtree's values (for
// range-reduction queries). nil represents an (implicitly black) leaf,
// rather than an explicit sentinel node singleton.
//
// node is itself a GC-managed object: leftObj/rightObj/parentObj hold
// child/parent links boxed as [gc.Object] rather than bare *node, so that
// a collecting allocator can log a store across generations through
// [gc.Allocator.AssignMember] and relocate/forward them from
// [node.ForwardChildren] during a collection. key/value are plain Go
// values, not managed objects -- this module's allocator trait only ever
// needs to move node identity, never reach inside an arbitrary K/V
// payload.
type node[K cmp.Ordered, V any] struct {
	gc.Header

	key   K
	value V
	color color

	leftObj, rightObj, parentObj gc.Object

	size    int
	reduced V
}

// newNode allocates a node through a, tagging its header with the
// generation a.Alloc reports.
func newNode[K cmp.Ordered, V any](a gc.Allocator, key K, value V, c color, parent *node[K, V]) *node[K, V] {
	gen := a.Alloc(nodeFootprint[K, V]())
	n := &node[K, V]{Header: gc.NewHeader(a, gen, true), key: key, value: value, color: c}
	n.parentObj = objectOf(parent)
	return n
}

// ShallowSize implements [gc.Object].
func (n *node[K, V]) ShallowSize() int { return nodeFootprint[K, V]() }

// ShallowCopy implements [gc.Object]: it copies every scalar field plus the
// raw (pre-forwarding) child/parent identities, which ForwardChildren fixes
// up once the copy has its own place in the visited cache.
func (n *node[K, V]) ShallowCopy(dst gc.Allocator) gc.Object {
	gen := dst.AllocGCCopy(n)
	return &node[K, V]{
		Header:    gc.NewHeader(dst, gen, n.AfterCheckpoint()),
		key:       n.key,
		value:     n.value,
		color:     n.color,
		leftObj:   n.leftObj,
		rightObj:  n.rightObj,
		parentObj: n.parentObj,
		size:      n.size,
		reduced:   n.reduced,
	}
}

// ForwardChildren implements [gc.Object]: relocate left/right/parent
// through c, the only pointers a node carries.
func (n *node[K, V]) ForwardChildren(c *gc.Collector) int {
	if n.leftObj != nil {
		n.leftObj = c.Relocate(n.leftObj)
	}
	if n.rightObj != nil {
		n.rightObj = c.Relocate(n.rightObj)
	}
	if n.parentObj != nil {
		n.parentObj = c.Relocate(n.parentObj)
	}
	return n.ShallowSize()
}

func nodeFootprint[K cmp.Ordered, V any]() int {
	return layout.Of[node[K, V]]().Size
}

// objectOf boxes n as a [gc.Object], reporting nil (not a non-nil interface
// wrapping a nil pointer) when n itself is nil.
func objectOf[K cmp.Ordered, V any](n *node[K, V]) gc.Object {
	if n == nil {
		return nil
	}
	return n
}

func (n *node[K, V]) left() *node[K, V] {
	if n == nil || n.leftObj == nil {
		return nil
	}
	return n.leftObj.(*node[K, V])
}

func (n *node[K, V]) right() *node[K, V] {
	if n == nil || n.rightObj == nil {
		return nil
	}
	return n.rightObj.(*node[K, V])
}

func (n *node[K, V]) parent() *node[K, V] {
	if n == nil || n.parentObj == nil {
		return nil
	}
	return n.parentObj.(*node[K, V])
}

// setLeft/setRight/setParent route a node-pointer store through a's write
// barrier: a plain store for a non-collecting allocator, or a logged
// cross-generational store for a [gc.Collector]. n is the node the field
// belongs to and must not be nil; the tree's own root pointer is stored
// directly by Tree.setRoot and scanned as a registered GC root instead.
func setLeft[K cmp.Ordered, V any](a gc.Allocator, n, v *node[K, V]) {
	a.AssignMember(objectOf(n), &n.leftObj, objectOf(v))
}

func setRight[K cmp.Ordered, V any](a gc.Allocator, n, v *node[K, V]) {
	a.AssignMember(objectOf(n), &n.rightObj, objectOf(v))
}

func setParent[K cmp.Ordered, V any](a gc.Allocator, n, v *node[K, V]) {
	a.AssignMember(objectOf(n), &n.parentObj, objectOf(v))
}

func colorOf[K cmp.Ordered, V any](n *node[K, V]) color {
	if n == nil {
		return black
	}
	return n.color
}

func sizeOf[K cmp.Ordered, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	return n.size
}

// update recomputes n's cached size and reduced value from its current
// children. It is always correct regardless of how n's children arrived at
// their current identity (insert, rotation, deletion splice), as long as
// the children's own cached fields are already up to date -- which a
// bottom-up walk guarantees.
func update[K cmp.Ordered, V any](n *node[K, V], reduceFn Reduce[V]) {
	if n == nil {
		return
	}
	l, r := n.left(), n.right()
	n.size = 1 + sizeOf(l) + sizeOf(r)
	acc := reduceFn.Leaf(n.value)
	if l != nil {
		acc = reduceFn.Combine(l.reduced, acc)
	}
	if r != nil {
		acc = reduceFn.Combine(acc, r.reduced)
	}
	n.reduced = acc
}

// recomputeUpward refreshes size/reduced from n up to the root, in
// bottom-up order. Call this once after all structural changes (including
// fixup rotations) from a single insert or erase are complete.
func recomputeUpward[K cmp.Ordered, V any](n *node[K, V], reduceFn Reduce[V]) {
	for cur := n; cur != nil; cur = cur.parent() {
		update(cur, reduceFn)
	}
}

func minNode[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	if n == nil {
		return nil
	}
	for n.left() != nil {
		n = n.left()
	}
	return n
}

func maxNode[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	if n == nil {
		return nil
	}
	for n.right() != nil {
		n = n.right()
	}
	return n
}

// successor returns the next node in key order after n, or nil.
func successor[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	if n.right() != nil {
		return minNode(n.right())
	}
	p := n.parent()
	for p != nil && n == p.right() {
		n = p
		p = p.parent()
	}
	return p
}

// predecessor returns the previous node in key order before n, or nil.
func predecessor[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	if n.left() != nil {
		return maxNode(n.left())
	}
	p := n.parent()
	for p != nil && n == p.left() {
		n = p
		p = p.parent()
	}
	return p
}
