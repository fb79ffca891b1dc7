package bridge

import (
	"time"

	set "github.com/deckarep/golang-set"

	"github.com/corebridge/corebridge/cothread"
)

// DirectionQueue is one side's ordered list of waiting cars. It is plain
// data: callers (the arbiter) are responsible for holding the queue mutex
// around every call, exactly as a per-side priority queue guarded by a
// cooperative mutex would be in the original simulator. The membership set
// gives O(1) double-enqueue detection; the queue-head sanity check on
// dequeue compares the head's id directly.
type DirectionQueue struct {
	cars []*Car
	ids  set.Set
}

// NewDirectionQueue returns an empty queue.
func NewDirectionQueue() *DirectionQueue {
	return &DirectionQueue{ids: set.NewSet()}
}

// Enqueue inserts car in the position dictated by policy, maintaining the
// invariant that the slice stays fully ordered (cheap at the scale this
// simulator runs at: per-side queue depth is bounded by configured vehicle
// counts, not an unbounded stream). Re-enqueuing an id already present is a
// no-op: every car actor enqueues itself exactly once, so a hit here would
// mean a caller bug, not a legitimate retry.
func (q *DirectionQueue) Enqueue(car *Car, policy cothread.Policy) {
	if q.ids.Contains(car.ID) {
		return
	}
	q.ids.Add(car.ID)
	idx := 0
	for idx < len(q.cars) && less(q.cars[idx], car, policy) {
		idx++
	}
	q.cars = append(q.cars, nil)
	copy(q.cars[idx+1:], q.cars[idx:])
	q.cars[idx] = car
}

// Head returns the front of the queue, or nil if empty.
func (q *DirectionQueue) Head() *Car {
	if len(q.cars) == 0 {
		return nil
	}
	return q.cars[0]
}

// Len reports how many cars are currently queued.
func (q *DirectionQueue) Len() int { return len(q.cars) }

// DequeueHead removes and returns the front of the queue, failing with
// ErrQueueHeadMismatch if its id does not equal expectID (the caller's own
// id) — the sanity check spec §4.5 step 2 calls for before a car leaves
// its queue.
func (q *DirectionQueue) DequeueHead(expectID uint64) (*Car, error) {
	if len(q.cars) == 0 {
		return nil, ErrEmptyQueue
	}
	head := q.cars[0]
	if head.ID != expectID {
		return nil, ErrQueueHeadMismatch
	}
	q.cars = q.cars[1:]
	q.ids.Remove(head.ID)
	return head, nil
}

// Remove deletes car id wherever it sits in the queue — used by the
// emergency-override path, which may force a car out of line from a
// position other than the head.
func (q *DirectionQueue) Remove(id uint64) (*Car, bool) {
	for i, c := range q.cars {
		if c.ID == id {
			q.cars = append(q.cars[:i], q.cars[i+1:]...)
			q.ids.Remove(id)
			return c, true
		}
	}
	return nil, false
}

// AnyEmergencyNearDeadline reports whether any queued EMERGENCY car has
// at most threshold remaining until its deadline, as of now.
func (q *DirectionQueue) AnyEmergencyNearDeadline(now time.Time, threshold time.Duration) bool {
	for _, c := range q.cars {
		if c.Type == Emergency && c.TimeToDeadline(now) <= threshold {
			return true
		}
	}
	return false
}

// less implements the five scheduling-policy orderings named in spec §3's
// "Direction queue" entry. It returns whether a sorts strictly before b.
func less(a, b *Car, policy cothread.Policy) bool {
	switch policy {
	case cothread.Priority:
		pa, pb := a.Type.defaultPriority(), b.Type.defaultPriority()
		if pa != pb {
			return pa > pb
		}
		return a.arrivalSeq < b.arrivalSeq
	case cothread.ShortestJobFirst:
		if a.EstimatedTime != b.EstimatedTime {
			return a.EstimatedTime < b.EstimatedTime
		}
		return a.arrivalSeq < b.arrivalSeq
	case cothread.EarliestDeadlineFirst:
		ae, be := a.Type == Emergency, b.Type == Emergency
		if ae != be {
			return ae
		}
		return a.arrivalSeq < b.arrivalSeq
	default: // RoundRobin, FirstComeFirstServed: arrival order
		return a.arrivalSeq < b.arrivalSeq
	}
}
