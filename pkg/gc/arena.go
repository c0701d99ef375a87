package gc

import (
	"github.com/rconybea/ordinaltree/internal/debug"
	baseArena "github.com/rconybea/ordinaltree/pkg/arena"
)

// ArenaAlloc adapts the non-moving [baseArena.Arena] to the [Allocator]
// trait, giving it the checkpoint/containment/write-barrier contract the
// arena itself has no reason to know about.
//
// Every object an ArenaAlloc allocates is Tenured and permanently
// non-forwarding: a non-moving allocator never evacuates, so AssignMember
// is a plain pointer store and AllocGCCopy panics.
type ArenaAlloc struct {
	name  string
	arena baseArena.Arena

	allocated int
	ckptAt    int // Allocated() value at the most recent Checkpoint call.

	// Containment and checkpoint queries track identity rather than address
	// range: Go
	// objects allocated "from" this arena are ordinary heap values, so
	// containment is answered by consulting each object's own Header
	// (set to this ArenaAlloc at construction time) rather than by
	// walking byte ranges the way the underlying byte arena does.
}

var _ Allocator = (*ArenaAlloc)(nil)
var _ TrivialDeallocator = (*ArenaAlloc)(nil)

// NewArenaAlloc constructs a named, empty arena allocator.
func NewArenaAlloc(name string) *ArenaAlloc {
	return &ArenaAlloc{name: name}
}

func (a *ArenaAlloc) Name() string { return a.name }

func (a *ArenaAlloc) Alloc(z int) Generation {
	z += AllocPadding(z)
	a.arena.Reserve(z)
	a.allocated += z
	a.arena.Log("alloc", "%s: %d bytes (total %d)", a.name, z, a.allocated)
	return Tenured
}

func (a *ArenaAlloc) Size() int      { return a.arena.Cap() }
func (a *ArenaAlloc) Committed() int { return a.arena.Cap() }
func (a *ArenaAlloc) Allocated() int { return a.allocated }
func (a *ArenaAlloc) Available() int {
	if c := a.Committed() - a.Allocated(); c > 0 {
		return c
	}
	return 0
}

// Contains reports whether o was allocated by this arena. It trusts the
// object's own header rather than address arithmetic: see the comment on
// ArenaAlloc's fields.
func (a *ArenaAlloc) Contains(o Object) bool {
	h, ok := headerOf(o)
	return ok && h.Owner() == a
}

func (a *ArenaAlloc) Checkpoint() {
	a.ckptAt = a.allocated
	a.arena.Log("checkpoint", "%s: at %d bytes", a.name, a.ckptAt)
}

func (a *ArenaAlloc) IsBeforeCheckpoint(o Object) bool {
	h, ok := headerOf(o)
	return ok && !h.AfterCheckpoint()
}

func (a *ArenaAlloc) Clear() {
	a.arena.Reset()
	a.allocated = 0
	a.ckptAt = 0
}

// AssignMember is a plain store: a non-moving allocator never needs a
// write-barrier log entry, since nothing it owns is ever relocated.
func (a *ArenaAlloc) AssignMember(parent Object, lhs *Object, rhs Object) {
	debug.Log(nil, "assign_member", "%s: parent=%v rhs=%v", a.name, parent, rhs)
	*lhs = rhs
}

// AllocGCCopy panics: a non-moving allocator never evacuates, so nothing
// should ever ask it for GC-copy storage.
func (a *ArenaAlloc) AllocGCCopy(src Object) Generation {
	panic("gc: AllocGCCopy called on a non-moving ArenaAlloc")
}

// TrivialDeallocate reports true: Clear/Reset discards everything in bulk.
func (a *ArenaAlloc) TrivialDeallocate() bool { return true }

// headerOf recovers the embedded Header from any object whose concrete type
// exposes one through the small headerHolder interface. Concrete managed
// types satisfy this automatically by embedding Header, since Header's own
// pointer-receiver methods promote onto them; this helper lets allocator
// code introspect a header without widening the public Object interface.
type headerHolder interface {
	Generation() Generation
	AfterCheckpoint() bool
	Owner() Allocator
}

func headerOf(o Object) (headerHolder, bool) {
	h, ok := o.(headerHolder)
	return h, ok
}
