package gc

import "fmt"

// AllocatorExhaustedError reports that an allocator could not satisfy a
// request because it has reached a hard capacity limit: a collector whose
// nursery is still over budget after a minor collection, or whose tenured
// generation has no room for a survivor being promoted. In the latter case
// the collector panics at once; it does not retry with a major collection.
type AllocatorExhaustedError struct {
	Allocator string
	Requested int
}

func (e *AllocatorExhaustedError) Error() string {
	return fmt.Sprintf("gc: allocator %q exhausted: requested %d bytes", e.Allocator, e.Requested)
}

// LookupMissError reports that a keyed lookup found no entry for the given
// key. A container's panic-on-miss accessor (At) panics with it, so callers
// can recover it with errors.As when they want to; TryFind reports a miss
// as an empty opt.Option instead and does not use this type.
type LookupMissError struct {
	Container string
	Key       any
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("gc: %s: no entry for key %v", e.Container, e.Key)
}

// InvariantViolationError marks a structural invariant failure detected by
// a verify pass. It is constructed but never returned to a caller in the
// ordinary control-flow sense: VerifyOK panics with it rather than
// returning an error, treating structural corruption as an assertion
// failure.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("gc: invariant violation: %s", e.Detail)
}

// IteratorMisuseError marks dereferencing, advancing, or retreating an
// iterator outside its valid range (e.g. ++end() or --begin()).
type IteratorMisuseError struct {
	Detail string
}

func (e *IteratorMisuseError) Error() string {
	return fmt.Sprintf("gc: iterator misuse: %s", e.Detail)
}

// StrayReferenceError marks a pointer observed to reference storage outside
// any generation or checkpoint the collector recognizes. Like
// InvariantViolationError, this is a fatal condition: it is panicked with,
// never silently swallowed.
type StrayReferenceError struct {
	Detail string
}

func (e *StrayReferenceError) Error() string {
	return fmt.Sprintf("gc: stray reference: %s", e.Detail)
}

func panicInvariant(format string, args ...any) {
	panic(&InvariantViolationError{Detail: fmt.Sprintf(format, args...)})
}

func panicIteratorMisuse(format string, args ...any) {
	panic(&IteratorMisuseError{Detail: fmt.Sprintf(format, args...)})
}

func panicStrayReference(format string, args ...any) {
	panic(&StrayReferenceError{Detail: fmt.Sprintf(format, args...)})
}
