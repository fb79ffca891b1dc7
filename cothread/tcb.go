package cothread

import "time"

// EntryFunc is a thread's start routine: one opaque argument in, one opaque
// result out. The result is what Join hands back to a caller.
type EntryFunc func(arg any) any

// Attr mirrors CEthread_attr_t: hints consulted at creation time, plus the
// scheduling hints the policy selector reads for the lifetime of the TCB.
type Attr struct {
	// StackSize is recorded as metadata only; Go's goroutine stacks grow
	// on demand, so nothing is preallocated from this value.
	StackSize int
	// Detached, if true, means no join is ever expected; the TCB and its
	// result are released the moment it terminates instead of waiting for
	// a joiner to collect them.
	Detached bool
	// Priority is read by the Priority policy; higher runs first.
	Priority int
	// EstimatedTime is read by the SJF policy; smaller runs first.
	EstimatedTime int64
	// Deadline, relative to creation time, is read by the EDF policy; a
	// zero value means "no deadline" and sorts last.
	Deadline time.Duration
}

const defaultStackSize = 64 * 1024 // 64 KiB, per the >=64KiB default in the data model

// DefaultAttr returns the attributes CEthread_attr_init would produce: a
// joinable thread with a fixed default stack size and no scheduling hints.
func DefaultAttr() *Attr {
	return &Attr{StackSize: defaultStackSize}
}

// TCB is the runtime's thread control block: identity, state, stack,
// entry, result and join link, plus the scheduling hints the five policies
// read from. Exactly one exists per logical thread.
type TCB struct {
	id    uint64
	state State

	// scheduling hints
	priority      int
	estimatedTime int64
	deadline      time.Time // zero means "no deadline"
	creationSeq   uint64    // monotonic creation order, used by FCFS and as a tie-break

	entry EntryFunc
	arg   any
	result any

	detached bool
	joined   bool
	joinWaiter *TCB

	// Waiting metadata, valid only while state == Blocked on a Cond.
	waitCond     *Cond
	waitDeadline time.Time // zero means "wait indefinitely"
	condTimedOut bool

	// listNext/listPrev: the single intrusive link pair described in
	// list.go. Valid only while the TCB is a member of a Mutex's or
	// Cond's waiter list.
	listNext, listPrev *TCB

	// resume is the scheduler's half of the per-TCB baton: the scheduler
	// sends on it to dispatch this TCB, and the TCB's own goroutine
	// blocks receiving from it whenever it suspends (short of final
	// termination).
	resume chan struct{}

	stackSize int
}

// ID returns the TCB's identifier. Id 0 is always the bootstrap thread.
func (t *TCB) ID() uint64 { return t.id }

// State returns the TCB's current state.
func (t *TCB) State() State { return t.state }

// Priority returns the scheduling priority recorded at creation.
func (t *TCB) Priority() int { return t.priority }
