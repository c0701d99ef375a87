// Package gc provides the allocator trait and object-model contract shared
// by the arena allocator and the generational collector, plus the
// generational, evacuating collector itself, whose collections run every
// phase within a single call.
//
// The narrow idea: a mutator allocates through an [Allocator]; a managed
// type satisfies [Object] so that a collecting allocator can move it.
// Containers (bptree, rbtree) talk to whichever allocator they were built
// with through the [Allocator] interface alone, so they cost nothing extra
// when paired with a non-moving allocator such as [ArenaAlloc].
package gc

// Object is the interface every type managed by a collecting allocator must
// satisfy: a single dispatch surface that lets the collector size, copy,
// and relocate an object without knowing its concrete type.
//
// A fresh (non-forwarded) object always returns false from IsForwarded and
// nil from Destination. After ForwardTo is called, the object becomes a
// forwarding stub: IsForwarded reports true and Destination reports the new
// location. A forwarding stub must not be scanned or mutated again; its only
// job is answering "where did I move to".
type Object interface {
	// ShallowSize reports the exact number of bytes the object occupies,
	// excluding any out-of-object children reachable through pointers.
	ShallowSize() int

	// ShallowCopy allocates a copy of this object using dst's GC-copy path
	// and returns it. dst must be a collecting allocator; calling this on a
	// non-collecting allocator is a programming error.
	ShallowCopy(dst Allocator) Object

	// ForwardChildren rewrites every child pointer this object holds by
	// replacing it with its forwarding destination (or leaving it alone, if
	// it doesn't need to move). Returns ShallowSize(), so a scan cursor can
	// advance by the returned amount.
	ForwardChildren(c *Collector) int

	// IsForwarded reports whether this object has been replaced by a
	// forwarding stub pointing elsewhere.
	IsForwarded() bool

	// Destination returns the relocation target when IsForwarded is true,
	// and nil otherwise.
	Destination() Object

	// ForwardTo turns this object into a forwarding stub pointing at dest.
	ForwardTo(dest Object)
}

// Header is the common embedded state every GC-managed type carries. It is
// not exported as part of the Object interface (Go has no single vtable
// pointer to piggy-back on), but every concrete managed type embeds one and
// gets Header's six bookkeeping methods by promotion.
//
// This is the Go analogue of the design note about polymorphic object
// headers: rather than overwriting a live header with a same-shape
// "forwarded" header, we use an explicit tagged field (forwarded/dest),
// which is the natural way to express a live/forwarded variant without
// aliasing raw memory.
type Header struct {
	gen         Generation
	afterCkpt   bool
	owner       Allocator
	forwarded   bool
	destination Object
}

// NewHeader constructs a header for an object freshly allocated into
// generation gen by owner, tagged with whether the allocation happened
// after owner's most recent checkpoint.
func NewHeader(owner Allocator, gen Generation, afterCkpt bool) Header {
	return Header{gen: gen, afterCkpt: afterCkpt, owner: owner}
}

// Generation reports which generation this object currently lives in.
func (h *Header) Generation() Generation { return h.gen }

// AfterCheckpoint reports whether the object was allocated after the
// owning allocator's most recent checkpoint.
func (h *Header) AfterCheckpoint() bool { return h.afterCkpt }

// Owner reports the allocator that allocated this object.
func (h *Header) Owner() Allocator { return h.owner }

// IsForwarded implements part of [Object].
func (h *Header) IsForwarded() bool { return h.forwarded }

// Destination implements part of [Object].
func (h *Header) Destination() Object { return h.destination }

// ForwardTo implements part of [Object]. Concrete types call this from their
// own ForwardTo override if they need additional bookkeeping, or inherit it
// directly by embedding Header.
func (h *Header) ForwardTo(dest Object) {
	h.forwarded = true
	h.destination = dest
}
