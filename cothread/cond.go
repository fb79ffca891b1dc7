package cothread

import "time"

// Cond is a condition variable: an ordered waiter list with no mutex bound
// to it persistently — wait associates with a caller-supplied mutex only
// for the duration of that one call.
type Cond struct {
	rt      *Runtime
	waiters tcbList
}

// NewCond creates a condition variable bound to rt and registers it so the
// scheduler's idle loop can sweep it for expired timed waits.
func (rt *Runtime) NewCond() *Cond {
	c := &Cond{rt: rt}
	rt.conds = append(rt.conds, c)
	return c
}

// Wait atomically releases m (performing the same FIFO handoff Unlock
// would), appends the caller to the waiter list, blocks, and on
// resumption re-acquires m before returning. The caller must hold m.
func (c *Cond) Wait(m *Mutex) error {
	cur := c.rt.current
	if !m.locked || m.owner != cur {
		return ErrNotOwner
	}

	cur.waitDeadline = time.Time{}
	cur.condTimedOut = false
	cur.waitCond = c
	c.waiters.pushBack(cur)
	m.unlockInternal()

	cur.state = Blocked
	c.rt.handback <- cur
	<-cur.resume

	cur.waitCond = nil
	return c.reacquire(cur, m)
}

// TimedWait is Wait with a bound on how long the caller may remain
// blocked: the scheduler's idle sweep wakes it once the deadline passes,
// even with no Signal/Broadcast. The reported timeout may fire slightly
// late, bounded by the scheduler's poll interval, but never early except
// via a genuine Signal/Broadcast — callers must always re-check their own
// predicate regardless of the returned flag.
func (c *Cond) TimedWait(m *Mutex, d time.Duration) (timedOut bool, err error) {
	cur := c.rt.current
	if !m.locked || m.owner != cur {
		return false, ErrNotOwner
	}

	cur.waitDeadline = time.Now().Add(d)
	cur.condTimedOut = false
	cur.waitCond = c
	c.waiters.pushBack(cur)
	m.unlockInternal()

	cur.state = Blocked
	c.rt.handback <- cur
	<-cur.resume

	timedOut = cur.condTimedOut
	cur.waitCond = nil
	cur.waitDeadline = time.Time{}
	if err := c.reacquire(cur, m); err != nil {
		return timedOut, err
	}
	return timedOut, nil
}

// reacquire re-locks m on behalf of a thread just woken from a wait,
// exactly as Mutex.Lock would, but the caller is already known not to be
// the current owner (it just released m to wait on c).
func (c *Cond) reacquire(cur *TCB, m *Mutex) error {
	if !m.locked {
		m.locked = true
		m.owner = cur
		return nil
	}
	cur.state = Blocked
	m.waiters.pushBack(cur)
	c.rt.handback <- cur
	<-cur.resume
	return nil
}

// Signal wakes the head of the waiter list, in FIFO order.
func (c *Cond) Signal() error {
	w := c.waiters.popFront()
	if w == nil {
		return nil
	}
	w.waitCond = nil
	w.condTimedOut = false
	w.state = Ready
	return nil
}

// Broadcast wakes every waiter, in list (insertion) order.
func (c *Cond) Broadcast() error {
	for {
		w := c.waiters.popFront()
		if w == nil {
			return nil
		}
		w.waitCond = nil
		w.condTimedOut = false
		w.state = Ready
	}
}

// Destroy fails if any thread is still waiting; otherwise it is a no-op.
func (c *Cond) Destroy() error {
	if !c.waiters.empty() {
		return ErrInUse
	}
	return nil
}

// sweep is called by the scheduler's idle loop. It walks the waiter list
// once, in order, waking (and flagging condTimedOut on) any entry whose
// deadline has passed — the coarse polling approximation of timedwait the
// spec explicitly sanctions.
func (c *Cond) sweep(now time.Time) {
	t := c.waiters.head
	for t != nil {
		next := t.listNext
		if !t.waitDeadline.IsZero() && !now.Before(t.waitDeadline) {
			c.waiters.remove(t)
			t.waitCond = nil
			t.condTimedOut = true
			t.state = Ready
		}
		t = next
	}
}
