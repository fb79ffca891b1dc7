package cothread

import (
	"fmt"
	"os"
	"time"
)

// idleSleep is how long the scheduler sleeps before retrying selection when
// nothing is READY but threads remain BLOCKED. The original C scheduler
// used usleep(1000) — 1 ms — between retries; that constant is kept.
const idleSleep = 1 * time.Millisecond

// exitSignal unwinds an entry function's call stack back to the
// trampoline when Exit is called from arbitrarily deep within it.
type exitSignal struct{ result any }

// schedulerLoop is the scheduler's dedicated goroutine. It is a direct
// port of CEthread_scheduler's selection/dispatch/idle loop, expressed as
// channel handoffs instead of swapcontext calls: see doc.go and
// SPEC_FULL.md §1.1 for the mapping.
func (rt *Runtime) schedulerLoop() {
	waitForHandback := true
	for {
		if waitForHandback {
			<-rt.handback
		}

		next := rt.selectByPolicy()
		if next == nil {
			if !rt.anyNonBootstrapActive() {
				rt.current = rt.bootstrap
				rt.bootstrap.state = Running
				rt.bootstrap.resume <- struct{}{}
				return
			}
			time.Sleep(idleSleep)
			rt.sweepTimedWaits(time.Now())
			waitForHandback = false
			continue
		}

		rt.current = next
		next.state = Running
		next.resume <- struct{}{}
		waitForHandback = true
	}
}

// anyNonBootstrapActive reports whether any TCB other than the bootstrap
// thread is still READY or BLOCKED — i.e. whether there is any reason for
// the scheduler loop to keep running.
func (rt *Runtime) anyNonBootstrapActive() bool {
	for _, id := range rt.order {
		if id == rt.bootstrap.id {
			continue
		}
		t := rt.table[id]
		if t == nil {
			continue
		}
		if t.state == Ready || t.state == Blocked {
			return true
		}
	}
	return false
}

// sweepTimedWaits walks every registered Cond's waiter list, waking any
// entry whose timed-wait deadline has passed. This realizes the "coarse
// polling sweep" cond_timedwait is explicitly allowed to use.
func (rt *Runtime) sweepTimedWaits(now time.Time) {
	for _, c := range rt.conds {
		c.sweep(now)
	}
}

// trampoline is the goroutine body backing every non-bootstrap TCB. It
// blocks for its first dispatch, runs the entry function with panic-safe
// unwinding for Exit, then performs the same on-complete bookkeeping the
// original thread_wrapper trampoline did: record the result, mark
// TERMINATED, wake a waiting joiner, and hand control back to the
// scheduler for the last time.
func (rt *Runtime) trampoline(t *TCB) {
	<-t.resume
	result := rt.runEntry(t)
	rt.completeThread(t, result)
}

func (rt *Runtime) runEntry(t *TCB) (result any) {
	defer func() {
		if rec := recover(); rec != nil {
			if sig, ok := rec.(exitSignal); ok {
				result = sig.result
				return
			}
			rt.fatal(fmt.Errorf("thread %d: unrecovered panic: %v", t.id, rec))
		}
	}()
	return t.entry(t.arg)
}

func (rt *Runtime) completeThread(t *TCB, result any) {
	t.result = result
	t.state = Terminated
	if t.joinWaiter != nil {
		t.joinWaiter.state = Ready
	} else if t.detached {
		delete(rt.table, t.id)
	}
	rt.handback <- t
}

// fatal reports a corrupted-runtime condition — the Go analogue of the
// original context switcher's "failed capture/install aborts the process".
// It is reached only when a thread's entry function panics with something
// other than Exit's sentinel.
func (rt *Runtime) fatal(err error) {
	if rt.logger != nil {
		rt.logger.Log(LevelError, "fatal runtime error", "error", err)
	} else {
		fmt.Fprintln(os.Stderr, "cothread: fatal:", err)
	}
	os.Exit(1)
}
