package cothread

// Mutex is an exclusive-ownership lock with a strict FIFO waiter list and
// direct ownership transfer on unlock — the unlocking thread never leaves
// a gap for another, unrelated thread to race in and steal the lock ahead
// of the waiter it just woke (no convoy).
type Mutex struct {
	rt      *Runtime
	locked  bool
	owner   *TCB
	waiters tcbList
}

// NewMutex creates an unlocked mutex bound to rt. The attributes argument
// CEmutex_init accepted is not modeled: there is nothing to configure.
func (rt *Runtime) NewMutex() *Mutex {
	return &Mutex{rt: rt}
}

// Lock acquires m for the calling thread, blocking if it is already held.
// Relocking a mutex already held by the caller fails with ErrDeadlock
// instead of blocking forever.
func (m *Mutex) Lock() error {
	cur := m.rt.current
	if !m.locked {
		m.locked = true
		m.owner = cur
		return nil
	}
	if m.owner == cur {
		return ErrDeadlock
	}

	cur.state = Blocked
	m.waiters.pushBack(cur)
	m.rt.handback <- cur
	<-cur.resume
	// Ownership was already assigned to us by the unlocker; nothing left
	// to do.
	return nil
}

// Unlock releases m. If waiters remain, ownership transfers directly to
// the FIFO head, which becomes READY; otherwise the mutex goes free.
func (m *Mutex) Unlock() error {
	cur := m.rt.current
	if !m.locked || m.owner != cur {
		return ErrNotOwner
	}
	m.unlockInternal()
	return nil
}

// unlockInternal performs the ownership handoff without checking the
// caller's identity; used both by Unlock and by Cond.Wait, which releases
// the mutex on the caller's behalf as one atomic step with enqueueing onto
// the condvar's waiter list.
func (m *Mutex) unlockInternal() {
	next := m.waiters.popFront()
	if next == nil {
		m.locked = false
		m.owner = nil
		return
	}
	m.owner = next
	next.state = Ready
}

// Destroy fails if the mutex is still locked; otherwise it is a no-op.
func (m *Mutex) Destroy() error {
	if m.locked {
		return ErrInUse
	}
	return nil
}
