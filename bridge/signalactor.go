package bridge

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// runSignalActor is spec §4.5's "Signal policy" auxiliary actor: it sleeps
// signal_time, then either flips current_direction or logs that it is
// maintaining it, depending on whether an emergency car is close to its
// deadline. It is started unconditionally by cmd/bridge-sim so the wiring
// stays uniform across flow policies, but is a no-op under FIFO/EQUITY:
// those policies drive current_direction through their own admission and
// exit bookkeeping, and a second, independently-timed actor flipping the
// same field out from under them would corrupt it.
func (a *Arbiter) runSignalActor() {
	if a.cfg.Flow != Signal {
		return
	}

	// Rate-limits repeated "maintaining direction" lines when an emergency
	// car sits near its deadline across many consecutive signal intervals,
	// so the log stays readable under a long-running near-miss.
	limiter := catrate.NewLimiter(map[time.Duration]int{time.Minute: 30})

	for !a.Done() {
		a.rt.Sleep(a.cfg.SignalInterval)
		if a.Done() {
			return
		}

		_ = a.bridgeMutex.Lock()
		dir := a.state.currentDirection
		blocked := a.emergencyNearDeadlineLocked()
		if !blocked {
			newDir := dir.Opposite()
			a.state.currentDirection = newDir
			a.state.carsInWindow = 0
			a.rec.SignalFlip(newDir)
			_ = a.bridgeCond.Broadcast()
		} else if _, ok := limiter.Allow("maintain"); ok {
			a.rec.SignalMaintain(dir)
		}
		_ = a.bridgeMutex.Unlock()
	}
}

// emergencyNearDeadlineLocked is anyEmergencyNearThreshold's body, callable
// while the bridge mutex is already held (it only touches the queue
// mutex, consistently acquired after the bridge mutex).
func (a *Arbiter) emergencyNearDeadlineLocked() bool {
	return a.anyEmergencyNearThreshold()
}
