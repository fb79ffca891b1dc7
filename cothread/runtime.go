package cothread

import "time"

// Runtime is the global scheduler state: the TCB table, creation order,
// current thread, and the dedicated scheduler goroutine. Per the design
// note that global scheduler state should be a singleton service, a
// Runtime is created once via Init, exposes an explicit Shutdown, and must
// not be re-initialized while live.
type Runtime struct {
	table map[uint64]*TCB
	order []uint64 // creation order of every id ever issued; entries are never removed
	nextID uint64

	current   *TCB
	bootstrap *TCB
	policy    Policy

	handback chan *TCB
	conds    []*Cond

	maxThreads int

	logger Logger

	sleepMutex *Mutex
	sleepCond  *Cond
}

// Init brings up a runtime with the given scheduling policy, ready for
// Create to be called from the calling goroutine (which becomes the
// bootstrap thread, id 0). The scheduler goroutine is started but stays
// parked until the bootstrap thread's first suspension.
func Init(policy Policy, logger Logger) *Runtime {
	if logger == nil {
		logger = NopLogger{}
	}
	bootstrap := &TCB{
		id:     0,
		state:  Running,
		resume: make(chan struct{}),
	}
	rt := &Runtime{
		table:      map[uint64]*TCB{0: bootstrap},
		order:      []uint64{0},
		nextID:     1,
		current:    bootstrap,
		bootstrap:  bootstrap,
		policy:     policy,
		handback:   make(chan *TCB),
		maxThreads: 1 << 20,
		logger:     logger,
	}
	go rt.schedulerLoop()
	rt.sleepMutex = rt.NewMutex()
	rt.sleepCond = rt.NewCond()
	return rt
}

// Sleep suspends the calling thread for approximately d of real time
// without stalling the rest of the runtime: it is a thin wrapper over a
// dedicated mutex/cond pair timedwait, so other threads are free to run
// during the delay. This is the cooperative analogue of the crossing-time
// and signal-interval sleeps the original simulator performed with a raw
// usleep — a raw sleep would stall the whole scheduler here, since nothing
// else could run while the one active goroutine blocked synchronously.
func (rt *Runtime) Sleep(d time.Duration) {
	if d <= 0 {
		rt.Yield()
		return
	}
	_ = rt.sleepMutex.Lock()
	_, _ = rt.sleepCond.TimedWait(rt.sleepMutex, d)
	_ = rt.sleepMutex.Unlock()
}

// Shutdown releases every TCB except the bootstrap thread. Calling it
// while non-bootstrap threads are still RUNNING or READY is undefined
// behaviour per the runtime's termination contract; implementations are
// expected to call it only once every created thread has been joined.
func (rt *Runtime) Shutdown() {
	for _, id := range rt.order {
		if id == rt.bootstrap.id {
			continue
		}
		t := rt.table[id]
		if t == nil {
			continue
		}
		if t.state != Terminated {
			rt.logger.Log(LevelWarn, "runtime shutdown with live thread", "thread", id, "state", t.state.String())
		}
		delete(rt.table, id)
	}
	rt.order = []uint64{rt.bootstrap.id}
	rt.conds = nil
}

// Create allocates a new TCB, starts its backing goroutine, and marks it
// READY. attr may be nil, in which case DefaultAttr() applies.
func (rt *Runtime) Create(entry EntryFunc, arg any, attr *Attr) (uint64, error) {
	if entry == nil {
		return 0, ErrBadArgument
	}
	if len(rt.table) >= rt.maxThreads {
		return 0, ErrNoCapacity
	}
	if attr == nil {
		attr = DefaultAttr()
	}

	id := rt.nextID
	rt.nextID++

	var deadline time.Time
	if attr.Deadline > 0 {
		deadline = time.Now().Add(attr.Deadline)
	}

	t := &TCB{
		id:            id,
		state:         Ready,
		priority:      attr.Priority,
		estimatedTime: attr.EstimatedTime,
		deadline:      deadline,
		creationSeq:   id,
		entry:         entry,
		arg:           arg,
		detached:      attr.Detached,
		resume:        make(chan struct{}),
		stackSize:     attr.StackSize,
	}
	rt.table[id] = t
	rt.order = append(rt.order, id)
	go rt.trampoline(t)
	return id, nil
}

// Self returns the id of the currently running TCB.
func (rt *Runtime) Self() uint64 {
	if rt.current == nil {
		return 0
	}
	return rt.current.id
}

// Lookup returns the TCB for id, or nil if it does not exist (never
// created, or already joined/reclaimed).
func (rt *Runtime) Lookup(id uint64) *TCB { return rt.table[id] }

// Yield transitions the current TCB from RUNNING to READY and re-enters
// the scheduler. A yield by the only runnable thread is a no-op after the
// scheduler round trip selects it straight back.
func (rt *Runtime) Yield() {
	cur := rt.current
	cur.state = Ready
	rt.handback <- cur
	<-cur.resume
}

// Exit terminates the calling thread immediately, unwinding any pending
// defers on the way, with result becoming what a Join call returns. It
// never returns to its caller.
func (rt *Runtime) Exit(result any) {
	panic(exitSignal{result})
}

// Join blocks until the target thread terminates (or returns immediately
// if it already has), consuming its result exactly once and releasing its
// TCB. Self-join is a deadlock error; a second join on the same target, or
// a join on an unknown id, fails without blocking.
func (rt *Runtime) Join(id uint64) (any, error) {
	cur := rt.current
	if id == cur.id {
		return nil, ErrDeadlock
	}
	target, ok := rt.table[id]
	if !ok {
		return nil, ErrNoSuchThread
	}
	if target.joined || target.joinWaiter != nil {
		return nil, ErrAlreadyJoined
	}

	if target.state == Terminated {
		res := target.result
		target.joined = true
		delete(rt.table, id)
		return res, nil
	}

	target.joinWaiter = cur
	cur.state = Blocked
	rt.handback <- cur
	<-cur.resume

	res := target.result
	target.joined = true
	delete(rt.table, id)
	return res, nil
}
