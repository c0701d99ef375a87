package gc

// Every concrete [Allocator] in this module already implements the full
// interface uniformly (see alloc.go), so there is no fallback method set to
// select between allocator flavors. What's left is a handful of capability
// queries a few call sites need to branch on: does this allocator support
// incremental collection (so a container should consult [Collector] cycle
// state before mutating), and does it deallocate trivially (so Clear can
// skip a node-by-node free walk). Those are expressed here as small marker
// interfaces plus type assertions -- Go's idiomatic substitute for
// compile-time trait detection.

// IncrementalGC is implemented by allocators that expose a collection
// cycle state. Only [Collector] implements it; a Collector runs every
// phase of a collection within a single call, so a caller outside a
// collection only ever observes Idle.
type IncrementalGC interface {
	// CycleState reports the collector's current phase.
	CycleState() CycleState
}

// HasIncrementalGC reports whether a is a collecting allocator with an
// incremental cycle a caller might need to cooperate with.
func HasIncrementalGC(a Allocator) (IncrementalGC, bool) {
	gc, ok := a.(IncrementalGC)
	return gc, ok
}

// TrivialDeallocator is implemented by allocators whose Clear is a bulk
// reclaim that need not visit individual objects (an arena resets its bump
// pointer; nothing object-shaped needs tearing down).
type TrivialDeallocator interface {
	// TrivialDeallocate reports true when Clear requires no per-object walk.
	TrivialDeallocate() bool
}

// HasTrivialDeallocate reports whether a's Clear is a bulk reclaim.
// rbtree.Tree.Clear and bptree.Tree.Clear call the allocator's Clear only
// when this reports true; otherwise they just drop their root. Neither tree
// has a per-node visit that releases nodes one by one.
func HasTrivialDeallocate(a Allocator) bool {
	if td, ok := a.(TrivialDeallocator); ok {
		return td.TrivialDeallocate()
	}
	return false
}
