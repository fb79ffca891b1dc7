package bridge

import (
	"time"

	"github.com/corebridge/corebridge/cothread"
)

// arbiterState is the "Shared arbitration state" of spec §3: current
// direction, the EQUITY window counter, per-side on-bridge and remaining
// counts. It is read and written while holding the bridge mutex, except the
// emergency-waiting counters, which enqueue also updates under the queue
// mutex alone.
type arbiterState struct {
	currentDirection Direction
	carsInWindow     int

	carsOnBridgeLeft, carsOnBridgeRight int
	remainingLeft, remainingRight       int

	emergencyWaitingLeft, emergencyWaitingRight int
}

func (s *arbiterState) remaining(dir Direction) int {
	if dir == Left {
		return s.remainingLeft
	}
	return s.remainingRight
}

// Arbiter is the bridge's arbitration core: the bridge mutex, the queue
// mutex, the bridge condvar, the per-side queues and the shared state they
// guard. One Arbiter drives one simulation run.
type Arbiter struct {
	rt      *cothread.Runtime
	cfg     *Config
	rec     *Recorder
	metrics *Metrics

	bridgeMutex *cothread.Mutex
	queueMutex  *cothread.Mutex
	bridgeCond  *cothread.Cond

	left, right *DirectionQueue
	state       arbiterState

	nextCarID      uint64
	nextArrivalSeq uint64
}

// NewArbiter wires a fresh arbiter on top of rt, ready to admit cfg's
// configured vehicle counts.
func NewArbiter(rt *cothread.Runtime, cfg *Config, rec *Recorder, metrics *Metrics) *Arbiter {
	a := &Arbiter{
		rt:      rt,
		cfg:     cfg,
		rec:     rec,
		metrics: metrics,
		left:    NewDirectionQueue(),
		right:   NewDirectionQueue(),
	}
	a.bridgeMutex = rt.NewMutex()
	a.queueMutex = rt.NewMutex()
	a.bridgeCond = rt.NewCond()
	a.state.currentDirection = Left
	a.state.remainingLeft = cfg.Left.Total()
	a.state.remainingRight = cfg.Right.Total()
	return a
}

func (a *Arbiter) queueFor(dir Direction) *DirectionQueue {
	if dir == Left {
		return a.left
	}
	return a.right
}

// estimateCrossingTime computes road_length / speed(type) as a duration,
// per spec §4.5 step 1/4.
func estimateCrossingTime(cfg *Config, t CarType) time.Duration {
	return time.Duration(cfg.RoadLength / t.Speed(cfg.BaseSpeed) * float64(time.Second))
}

// SpawnCar creates the TCB for one car of the given direction and type.
// The Car value itself is not born yet — it comes into existence inside
// the actor's own first step, when it stamps its arrival time — but the
// TCB's scheduling hints (priority, estimated time, deadline) are fixed
// now, since thread_create requires them up front.
func (a *Arbiter) SpawnCar(dir Direction, typ CarType) (uint64, error) {
	id := a.nextCarID
	a.nextCarID++

	attr := &cothread.Attr{
		Priority:      typ.defaultPriority(),
		EstimatedTime: int64(estimateCrossingTime(a.cfg, typ)),
	}
	if typ == Emergency {
		attr.Deadline = a.cfg.MaxEmergencyWait
	}

	return a.rt.Create(func(any) any {
		return a.runCarActor(id, dir, typ)
	}, nil, attr)
}

// SpawnSignalActor starts the SIGNAL flow policy's auxiliary actor. It is
// a no-op thread if the configured flow policy is not Signal.
func (a *Arbiter) SpawnSignalActor() (uint64, error) {
	return a.rt.Create(func(any) any {
		a.runSignalActor()
		return nil
	}, nil, cothread.DefaultAttr())
}

// runCarActor is spec §4.5's per-car state machine: ARRIVED → ENQUEUED →
// (ELIGIBLE ∧ SAFE) → ON_BRIDGE → EXITED.
func (a *Arbiter) runCarActor(id uint64, dir Direction, typ CarType) any {
	car := &Car{
		ID:            id,
		Direction:     dir,
		Type:          typ,
		ArrivalTime:   time.Now(),
		EstimatedTime: estimateCrossingTime(a.cfg, typ),
	}
	if typ == Emergency {
		car.Deadline = emergencyDeadline(car.ArrivalTime, a.cfg.MaxEmergencyWait)
	}
	a.rec.Arrive(car)
	a.enqueue(car)

	a.admitCar(car)
	a.metrics.recordEnter(car.Direction)
	a.rec.Enter(car)

	rrTimeout := a.crossAndSleep(car)

	a.exitBridge(car)
	a.metrics.recordExit(car.Direction)
	a.rec.Exit(car)

	if rrTimeout {
		a.rec.RRExceeded(car.ID)
		a.metrics.recordRRRequeue()
	}
	return car.ID
}

// enqueue is spec §4.5 step 1's tail: insert car into its side's queue in
// scheduling-policy order.
func (a *Arbiter) enqueue(car *Car) {
	_ = a.queueMutex.Lock()
	car.arrivalSeq = a.nextArrivalSeq
	a.nextArrivalSeq++
	a.queueFor(car.Direction).Enqueue(car, a.cfg.Scheduling)
	if car.Type == Emergency {
		a.bumpEmergencyWaiting(car.Direction, 1)
	}
	_ = a.queueMutex.Unlock()
}

func (a *Arbiter) bumpEmergencyWaiting(dir Direction, delta int) {
	if dir == Left {
		a.state.emergencyWaitingLeft += delta
	} else {
		a.state.emergencyWaitingRight += delta
	}
}

func (a *Arbiter) peekIsFront(car *Car) bool {
	_ = a.queueMutex.Lock()
	head := a.queueFor(car.Direction).Head()
	_ = a.queueMutex.Unlock()
	return head != nil && head.ID == car.ID
}

func (a *Arbiter) dequeueSelf(car *Car) {
	_ = a.queueMutex.Lock()
	if _, err := a.queueFor(car.Direction).DequeueHead(car.ID); err != nil {
		a.rec.QueueHeadMismatch(err)
		a.metrics.recordHeadMismatch()
	} else if car.Type == Emergency {
		a.bumpEmergencyWaiting(car.Direction, -1)
	}
	_ = a.queueMutex.Unlock()
}

func (a *Arbiter) forceDequeue(car *Car) {
	_ = a.queueMutex.Lock()
	if _, ok := a.queueFor(car.Direction).Remove(car.ID); ok && car.Type == Emergency {
		a.bumpEmergencyWaiting(car.Direction, -1)
	}
	_ = a.queueMutex.Unlock()
}

// anyEmergencyNearThreshold reports whether any queued EMERGENCY car, on
// either side, has waited >= 80% of max_wait_emergency — the condition
// spec §4.5 step 2 uses to pick cond_wait over cond_timedwait, and that
// the SIGNAL actor uses to decide whether it is safe to flip.
func (a *Arbiter) anyEmergencyNearThreshold() bool {
	threshold := time.Duration(float64(a.cfg.MaxEmergencyWait) * (1 - emergencyCondWaitThresholdFrac))
	now := time.Now()
	_ = a.queueMutex.Lock()
	near := a.left.AnyEmergencyNearDeadline(now, threshold) || a.right.AnyEmergencyNearDeadline(now, threshold)
	_ = a.queueMutex.Unlock()
	return near
}

// admitCar is spec §4.5 steps 2 and 3: block until (eligible ∧ safe) or an
// emergency override fires, then perform entry bookkeeping while still
// holding the bridge mutex.
func (a *Arbiter) admitCar(car *Car) {
	_ = a.bridgeMutex.Lock()
	for {
		isFront := a.peekIsFront(car)
		if eligible(a.cfg.Flow, car, isFront, &a.state, a.cfg.EquityWindow) && canEnter(car.Direction, &a.state) {
			a.dequeueSelf(car)
			break
		}
		if car.Type == Emergency {
			if ttd := car.TimeToDeadline(time.Now()); ttd <= emergencyOverrideThreshold {
				a.forceDequeue(car)
				a.rec.EmergencyOverride(car, ttd.Seconds())
				a.metrics.recordOverride()
				break
			}
		}
		if a.anyEmergencyNearThreshold() {
			_ = a.bridgeCond.Wait(a.bridgeMutex)
		} else {
			_, _ = a.bridgeCond.TimedWait(a.bridgeMutex, 100*time.Millisecond)
		}
	}

	if car.Direction == Left {
		a.state.carsOnBridgeLeft++
	} else {
		a.state.carsOnBridgeRight++
	}
	// Open question resolved per spec §9: cars_in_window is incremented at
	// entry, never also at exit.
	if a.cfg.Flow == Equity && car.Direction == a.state.currentDirection {
		a.state.carsInWindow++
		if a.state.carsInWindow >= a.cfg.EquityWindow || a.state.remaining(a.state.currentDirection) == 0 {
			a.state.carsInWindow = 0
			newDir := a.state.currentDirection.Opposite()
			a.state.currentDirection = newDir
			a.rec.EquityChange(newDir)
		}
	}
	_ = a.bridgeMutex.Unlock()
}

// crossAndSleep is spec §4.5 step 4: sleep for the crossing duration, and
// report whether a round-robin time slice was exceeded.
func (a *Arbiter) crossAndSleep(car *Car) bool {
	a.rt.Sleep(car.EstimatedTime)
	return a.cfg.Scheduling == cothread.RoundRobin && car.EstimatedTime > a.cfg.TimeQuantum
}

// exitBridge is spec §4.5 step 5's counter bookkeeping and broadcast. The
// literal "clone the car, append to the tail" RR-requeue behaviour is
// deliberately not reproduced here; see DESIGN.md.
func (a *Arbiter) exitBridge(car *Car) {
	_ = a.bridgeMutex.Lock()
	if car.Direction == Left {
		a.state.carsOnBridgeLeft--
		a.state.remainingLeft--
	} else {
		a.state.carsOnBridgeRight--
		a.state.remainingRight--
	}
	_ = a.bridgeCond.Broadcast()
	_ = a.bridgeMutex.Unlock()
}

// Done reports whether every configured vehicle has completed its
// crossing.
func (a *Arbiter) Done() bool {
	_ = a.bridgeMutex.Lock()
	done := a.state.remainingLeft == 0 && a.state.remainingRight == 0
	_ = a.bridgeMutex.Unlock()
	return done
}
