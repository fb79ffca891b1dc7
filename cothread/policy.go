package cothread

import "time"

// Policy selects which READY TCB runs next. The process-wide policy is
// fixed at Init and must not change while threads are live.
type Policy int

const (
	RoundRobin Policy = iota
	Priority
	ShortestJobFirst
	FirstComeFirstServed
	EarliestDeadlineFirst
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "RR"
	case Priority:
		return "PRIORITY"
	case ShortestJobFirst:
		return "SJF"
	case FirstComeFirstServed:
		return "FCFS"
	case EarliestDeadlineFirst:
		return "EDF"
	default:
		return "UNKNOWN"
	}
}

// farFuture stands in for "no deadline" when comparing EDF candidates, so a
// zero Deadline reliably sorts after every real one.
var farFuture = time.Unix(1<<61, 0)

func effectiveDeadline(t *TCB) time.Time {
	if t.deadline.IsZero() {
		return farFuture
	}
	return t.deadline
}

// selectByPolicy runs the configured policy over every known TCB, in
// creation order, and returns the one it would dispatch next, or nil if
// none is READY.
func (rt *Runtime) selectByPolicy() *TCB {
	if rt.policy == RoundRobin {
		return rt.selectRoundRobin()
	}

	var best *TCB
	for _, id := range rt.order {
		t := rt.table[id]
		if t == nil || t.state != Ready {
			continue
		}
		if best == nil {
			best = t
			continue
		}
		switch rt.policy {
		case Priority:
			if t.priority > best.priority {
				best = t
			}
		case ShortestJobFirst:
			if t.estimatedTime < best.estimatedTime {
				best = t
			}
		case FirstComeFirstServed:
			if t.creationSeq < best.creationSeq {
				best = t
			}
		case EarliestDeadlineFirst:
			if effectiveDeadline(t).Before(effectiveDeadline(best)) {
				best = t
			}
		}
	}
	return best
}

// selectRoundRobin returns the next READY TCB after current in the
// circular ordering of the TCB table; if current itself is the only READY
// one, the scan returns back to it.
func (rt *Runtime) selectRoundRobin() *TCB {
	n := len(rt.order)
	if n == 0 {
		return nil
	}
	startIdx := 0
	if rt.current != nil {
		for i, id := range rt.order {
			if id == rt.current.id {
				startIdx = i
				break
			}
		}
	}
	for step := 1; step <= n; step++ {
		idx := (startIdx + step) % n
		t := rt.table[rt.order[idx]]
		if t != nil && t.state == Ready {
			return t
		}
	}
	return nil
}
