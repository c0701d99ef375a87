package gc

import (
	"unsafe"

	"github.com/rconybea/ordinaltree/internal/debug"
	baseArena "github.com/rconybea/ordinaltree/pkg/arena"
	"github.com/rconybea/ordinaltree/pkg/arena/swiss"
)

// logEntry is one write-barrier record: parent.lhs was assigned rhs while
// the store needed tracking (rhs younger than parent, or rhs born before a
// checkpoint parent was born after). Fixup replays these once scanning has
// decided where everything ends up, rewriting *lhs if rhs moved.
type logEntry struct {
	parent Object
	lhs    *Object
	rhs    Object
}

// Collector is the generational, evacuating allocator. It
// manages two generations -- Nursery and Tenured -- each with its own byte
// budget, and relocates live objects out of the nursery on a minor
// collection, promoting long-lived survivors into Tenured.
//
// Rather than raw semi-space pointer arithmetic, Collector tracks identity:
// every managed object embeds a [Header] recording its owner, generation and
// checkpoint epoch, and "containment"/"before checkpoint" queries consult
// that header instead of comparing addresses against a from-space/to-space
// boundary -- object identity is the only thing a managed value's header
// can reliably pin down in Go, where objects are ordinary heap values
// reached by ordinary pointers rather than placements inside an
// allocator-owned byte array.
type Collector struct {
	name string

	nurseryBudget int
	tenuredBudget int
	nurseryAlloc  int
	tenuredAlloc  int

	ckptAt    int // nurseryAlloc at the most recent Checkpoint
	survivors int // consecutive minor collections an object must survive before promotion
	ageMap    map[Object]int

	logCap int
	log    []logEntry

	rootArena  baseArena.Arena
	rootSlots  []*Object
	rootIndex  *swiss.Map[uintptr, int]

	state CycleState
	stats GcStatistics

	// scanMajor/scanVisited are only valid between Rooting and Fixup: they
	// let Relocate (called from a managed type's ForwardChildren) share the
	// same old->new cache and major-ness as the root/log evacuation loop,
	// instead of requiring every Object to rediscover it.
	scanMajor   bool
	scanVisited map[Object]Object
}

var _ Allocator = (*Collector)(nil)
var _ IncrementalGC = (*Collector)(nil)
var _ TrivialDeallocator = (*Collector)(nil)

// CollectorOptions configures a [Collector] at construction time.
type CollectorOptions struct {
	Name             string
	NurseryBudget    int // bytes
	TenuredBudget    int // bytes
	PromoteAfter     int // minor collections an object must survive before promotion; 0 means 1
	WriteBarrierLogN int // capacity of the write-barrier log; 0 means a reasonable default
}

// NewCollector constructs an idle collector with the given budgets.
func NewCollector(opt CollectorOptions) *Collector {
	promote := opt.PromoteAfter
	if promote <= 0 {
		promote = 1
	}
	logCap := opt.WriteBarrierLogN
	if logCap <= 0 {
		logCap = 256
	}
	c := &Collector{
		name:          opt.Name,
		nurseryBudget: opt.NurseryBudget,
		tenuredBudget: opt.TenuredBudget,
		survivors:     promote,
		ageMap:        make(map[Object]int),
		logCap:        logCap,
	}
	c.rootIndex = swiss.NewMap[uintptr, int](&c.rootArena, 16)
	return c
}

func (c *Collector) Name() string { return c.name }

// Alloc accounts for a z-byte nursery allocation, triggering a minor
// collection and, if that is not enough, panicking with
// *AllocatorExhaustedError.
func (c *Collector) Alloc(z int) Generation {
	z += AllocPadding(z)
	if c.nurseryAlloc+z > c.nurseryBudget {
		c.MinorCollect()
	}
	if c.nurseryAlloc+z > c.nurseryBudget {
		panic(&AllocatorExhaustedError{Allocator: c.name + "/nursery", Requested: z})
	}
	c.nurseryAlloc += z
	c.stats.gen[Nursery].NewAllocZ += z
	return Nursery
}

func (c *Collector) Size() int      { return c.nurseryBudget + c.tenuredBudget }
func (c *Collector) Committed() int { return c.Size() }
func (c *Collector) Allocated() int { return c.nurseryAlloc + c.tenuredAlloc }
func (c *Collector) Available() int {
	if avail := c.Committed() - c.Allocated(); avail > 0 {
		return avail
	}
	return 0
}

func (c *Collector) Contains(o Object) bool {
	h, ok := headerOf(o)
	return ok && h.Owner() == c
}

func (c *Collector) Checkpoint() {
	c.ckptAt = c.nurseryAlloc
}

func (c *Collector) IsBeforeCheckpoint(o Object) bool {
	h, ok := headerOf(o)
	return ok && !h.AfterCheckpoint()
}

func (c *Collector) Clear() {
	c.nurseryAlloc = 0
	c.tenuredAlloc = 0
	c.ckptAt = 0
	c.log = c.log[:0]
	clear(c.ageMap)
	c.rootSlots = nil
	c.rootIndex = swiss.NewMap[uintptr, int](&c.rootArena, 16)
	c.state = Idle
	c.stats = GcStatistics{}
}

func (c *Collector) TrivialDeallocate() bool { return true }

func (c *Collector) CycleState() CycleState { return c.state }

// RegisterRoot adds slot to the root set scanned at the start of every
// collection. slot typically points at a container's top-level root field
// (e.g. &tree.root). Registering the same slot twice is a no-op.
func (c *Collector) RegisterRoot(slot *Object) {
	key := uintptr(unsafe.Pointer(slot))
	if _, ok := c.rootIndex.Get(key); ok {
		return
	}
	c.rootIndex.Put(key, len(c.rootSlots))
	c.rootSlots = append(c.rootSlots, slot)
}

// UnregisterRoot removes slot from the root set.
func (c *Collector) UnregisterRoot(slot *Object) {
	key := uintptr(unsafe.Pointer(slot))
	idx, ok := c.rootIndex.Get(key)
	if !ok {
		return
	}
	last := len(c.rootSlots) - 1
	if idx != last {
		c.rootSlots[idx] = c.rootSlots[last]
		movedKey := uintptr(unsafe.Pointer(c.rootSlots[idx]))
		c.rootIndex.Put(movedKey, idx)
	}
	c.rootSlots = c.rootSlots[:last]
	c.rootIndex.Delete(key)
}

// AssignMember implements the write barrier: record a log entry
// when the store crosses a generation the collector needs to revisit later,
// then perform the store immediately. The store is never deferred -- only
// the bookkeeping is.
func (c *Collector) AssignMember(parent Object, lhs *Object, rhs Object) {
	*lhs = rhs
	if rhs == nil {
		return
	}
	if c.needsLogging(parent, rhs) {
		c.logMutation(parent, lhs, rhs)
	}
}

func (c *Collector) needsLogging(parent, rhs Object) bool {
	ph, pok := headerOf(parent)
	rh, rok := headerOf(rhs)
	if !pok || !rok {
		return false
	}
	if ph.Owner() != c || rh.Owner() != c {
		return false
	}
	if ph.Generation() == Tenured && rh.Generation() == Nursery {
		c.stats.NXgenMutation++
		return true
	}
	if ph.AfterCheckpoint() && !rh.AfterCheckpoint() {
		c.stats.NXckpMutation++
		return true
	}
	return false
}

func (c *Collector) logMutation(parent Object, lhs *Object, rhs Object) {
	c.stats.NMutation++
	if len(c.log) >= c.logCap {
		// The log is full: drain it with a minor collection before losing
		// track of any pending cross-generational reference.
		c.MinorCollect()
	}
	c.log = append(c.log, logEntry{parent: parent, lhs: lhs, rhs: rhs})
	c.stats.NLoggedMutation++
}

// AllocGCCopy accounts for an evacuation copy of src. Survivors that have
// outlived the promotion threshold go straight to Tenured; everyone else
// stays in Nursery (a minor collection only ever copies within or out of
// the nursery, never touching Tenured objects).
func (c *Collector) AllocGCCopy(src Object) Generation {
	z := src.ShallowSize() + AllocPadding(src.ShallowSize())
	age := c.ageMap[src] + 1
	if age >= c.survivors {
		if c.tenuredAlloc+z > c.tenuredBudget {
			panic(&AllocatorExhaustedError{Allocator: c.name + "/tenured", Requested: z})
		}
		c.tenuredAlloc += z
		c.stats.gen[Tenured].PromoteZ += z
		c.stats.TotalPromoted++
		c.stats.TotalPromotedSab += z
		return Tenured
	}
	if c.nurseryAlloc+z > c.nurseryBudget {
		panic(&AllocatorExhaustedError{Allocator: c.name + "/nursery", Requested: z})
	}
	c.nurseryAlloc += z
	c.stats.gen[Nursery].SurviveZ += z
	return Nursery
}

// MinorCollect runs one nursery-only collection: every object reachable
// from a root that currently lives in Nursery is evacuated (to Nursery
// again, or to Tenured once it has survived enough cycles); Tenured objects
// are left untouched, and cross-generational references recorded by the
// write barrier are the only way a Tenured object's pointer into the
// nursery gets discovered and fixed up.
func (c *Collector) MinorCollect() {
	c.collect(false)
}

// MajorCollect runs a full collection over both generations.
func (c *Collector) MajorCollect() {
	c.collect(true)
}

func (c *Collector) collect(major bool) {
	debug.Log(nil, "gc", "%s: begin %v collect", c.name, map[bool]string{true: "major", false: "minor"}[major])

	c.state = Rooting
	visited := make(map[Object]Object) // old -> new (or old -> old if not moved)
	c.scanMajor = major
	c.scanVisited = visited
	defer func() {
		c.scanVisited = nil
	}()

	c.state = Scanning
	for _, slot := range c.rootSlots {
		*slot = c.evacuate(*slot, major, visited)
	}
	// Cross-generational references recorded by the write barrier may
	// point at objects that just moved; resolve them in Fixup below. But an
	// object only discovered through the log (not through a root) still
	// needs evacuating if it is itself in scope for this collection.
	for i := range c.log {
		e := &c.log[i]
		e.rhs = c.evacuate(e.rhs, major, visited)
	}

	c.state = Fixup
	for _, e := range c.log {
		if e.rhs != nil && e.rhs.IsForwarded() {
			*e.lhs = e.rhs.Destination()
		} else {
			*e.lhs = e.rhs
		}
	}
	remaining := c.log[:0]
	for _, e := range c.log {
		ph, _ := headerOf(e.parent)
		rh, rok := headerOf(*e.lhs)
		if rok && ph != nil && ph.Owner() == c && rh.Owner() == c {
			if ph.Generation() == Tenured && rh.Generation() == Nursery {
				remaining = append(remaining, logEntry{parent: e.parent, lhs: e.lhs, rhs: *e.lhs})
			}
		}
	}
	c.log = remaining

	for old := range visited {
		delete(c.ageMap, old)
	}

	if major {
		c.tenuredAlloc = 0
		for o, dst := range visited {
			if h, ok := headerOf(dst); ok && h.Owner() == c && h.Generation() == Tenured {
				c.tenuredAlloc += dst.ShallowSize()
			}
			_ = o
		}
	}
	c.nurseryAlloc = 0
	for _, dst := range visited {
		if h, ok := headerOf(dst); ok && h.Owner() == c && h.Generation() == Nursery {
			c.nurseryAlloc += dst.ShallowSize()
		}
	}

	c.stats.gen[Nursery].NGc++
	if major {
		c.stats.gen[Tenured].NGc++
	}
	c.state = Done
	c.state = Idle
	debug.Log(nil, "gc", "%s: end collect, nursery=%d tenured=%d", c.name, c.nurseryAlloc, c.tenuredAlloc)
}

// evacuate returns the post-collection location of o: nil if o is nil; o's
// recorded destination if it was already visited or forwarded; o itself if
// it is owned by a different allocator or out of scope for this collection
// (a Tenured object during a minor collection); otherwise a
// freshly copied destination, with o mutated in place into a forwarding
// stub per [Object.ForwardTo].
func (c *Collector) evacuate(o Object, major bool, visited map[Object]Object) Object {
	if o == nil {
		return nil
	}
	if dst, ok := visited[o]; ok {
		return dst
	}
	h, ok := headerOf(o)
	if !ok || h.Owner() != c {
		return o
	}
	if h.Generation() == Tenured && !major {
		return o
	}
	if o.IsForwarded() {
		dst := o.Destination()
		visited[o] = dst
		return dst
	}

	c.stats.gen[h.Generation()].ScannedZ += o.ShallowSize()
	age := c.ageMap[o]
	dst := o.ShallowCopy(c)
	o.ForwardTo(dst)
	visited[o] = dst
	if dh, ok := headerOf(dst); ok && dh.Generation() == Nursery {
		c.ageMap[dst] = age + 1
	}
	dst.ForwardChildren(c)
	return dst
}

// Relocate returns o's post-collection location, evacuating it if this
// collection cycle is still scanning. Managed types with outgoing object
// pointers call this from their ForwardChildren implementation to rewrite
// each child in place, sharing the in-progress visited cache so a cyclic or
// shared child is only ever copied once. Calling Relocate outside a
// Scanning/Fixup cycle is a programming error.
func (c *Collector) Relocate(o Object) Object {
	if c.scanVisited == nil {
		panicInvariant("Relocate called outside an active collection cycle")
	}
	return c.evacuate(o, c.scanMajor, c.scanVisited)
}

// Stats returns a snapshot of the collector's lifetime statistics.
func (c *Collector) Stats() GcStatistics {
	s := c.stats
	s.TotalAllocated = c.nurseryAlloc + c.tenuredAlloc
	return s
}

// nurseryBeforeAfter reports the raw byte counts of nursery objects
// born before/after the most recent checkpoint, for [GcStatisticsExt].
func (c *Collector) nurseryBeforeAfter() (before, after int) {
	before = c.ckptAt
	after = c.nurseryAlloc - c.ckptAt
	if after < 0 {
		after = 0
	}
	return
}
