package gc

import (
	"github.com/rconybea/ordinaltree/pkg/res"
	"github.com/rconybea/ordinaltree/pkg/xerrors"
)

// Generation names the two generations a collecting allocator may place an
// object in. A non-collecting allocator (ArenaAlloc) reports every object as
// Tenured, since it never moves anything.
type Generation int

const (
	// Nursery is the generation new objects are born into.
	Nursery Generation = iota
	// Tenured is the generation objects are promoted to after surviving
	// enough nursery collections.
	Tenured
)

func (g Generation) String() string {
	switch g {
	case Nursery:
		return "nursery"
	case Tenured:
		return "tenured"
	default:
		return "unknown"
	}
}

// Allocator is the single trait every allocation strategy in this module
// satisfies: the non-moving [ArenaAlloc], and the moving, generational
// [Collector]. Containers (bptree, rbtree) are written against this
// interface alone, never against a concrete allocator type, so the same
// tree code runs unchanged whether backed by an arena or a GC heap.
//
// One interface with uniform defaults covers both allocator flavors: a
// non-collecting allocator implements AssignMember as a plain store and
// AllocGCCopy by panicking, since nothing should call it there.
//
// Alloc does not hand back a raw address: managed objects are ordinary Go
// values, so the one thing every caller actually needs from an allocation
// request is bookkeeping (has the allocator got room, and which generation
// does the result belong in). Concrete object constructors call Alloc(z) to
// get that answer, build the header from the return value, and let normal
// Go allocation place the object on the heap.
type Allocator interface {
	// Name identifies the allocator in debug logs and error messages.
	Name() string

	// Alloc accounts for z freshly allocated bytes and reports which
	// generation the caller should tag its new object's header with.
	// Panics with *AllocatorExhaustedError if it cannot be satisfied
	// (wrapped by TryAlloc for callers that want a Result instead).
	Alloc(z int) Generation

	// Size reports the allocator's total storage capacity in bytes.
	Size() int
	// Committed reports bytes currently backed by real storage (<= Size).
	Committed() int
	// Allocated reports bytes handed out to callers so far.
	Allocated() int
	// Available reports Committed - Allocated (a lower bound on what the
	// next Alloc can satisfy without growing).
	Available() int

	// Contains reports whether o was allocated by this allocator (in
	// either generation, for a Collector).
	Contains(o Object) bool

	// Checkpoint records the allocator's current allocated byte count as
	// the checkpoint position. It does not change any object's header:
	// whether an object counts as "before the checkpoint" is fixed by the
	// afterCkpt flag its constructor passed to [NewHeader].
	Checkpoint()
	// IsBeforeCheckpoint reports whether o's header marks it as allocated
	// before the checkpoint (its AfterCheckpoint flag is false). The write
	// barrier uses this flag to decide whether a store needs logging.
	IsBeforeCheckpoint(o Object) bool

	// Clear discards every allocation, returning the allocator to its
	// initial empty state.
	Clear()

	// AssignMember performs *lhs = rhs, recording a write-barrier log entry
	// first if the store could create a reference a collector needs to
	// track (rhs lives in a younger generation, or was allocated before
	// the checkpoint while parent was allocated after it). parent is the
	// object whose field lhs is; it is required so the log entry can be
	// replayed against the right object during Fixup.
	AssignMember(parent Object, lhs *Object, rhs Object)

	// AllocGCCopy accounts for a copy of src made during evacuation and
	// reports which generation the copy belongs in. Only meaningful on a
	// collecting allocator; non-collecting allocators panic, since they
	// never evacuate anything.
	AllocGCCopy(src Object) Generation
}

// TryAlloc is a Result-returning wrapper around Alloc, for callers that
// prefer not to rely on Alloc's panic-on-exhaustion contract.
func TryAlloc(a Allocator, z int) (result res.Result[Generation]) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				if exhausted, ok := xerrors.AsA[*AllocatorExhaustedError](err); ok {
					result = res.Err[Generation](exhausted)
					return
				}
			}
			panic(r)
		}
	}()
	return res.Ok(a.Alloc(z))
}

// AllocPadding returns the number of bytes that rounds z up to the next
// multiple of the 8-byte machine word: 0 when z is already a multiple,
// otherwise 8 - z%8.
func AllocPadding(z int) int {
	const word = 8
	rem := z % word
	if rem == 0 {
		return 0
	}
	return word - rem
}
