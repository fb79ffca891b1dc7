package bridge

import "time"

// emergencyOverrideThreshold is the "time_to_deadline(self) <= 1s" trigger
// from spec §4.5 step 2's emergency-override escape hatch.
const emergencyOverrideThreshold = 1 * time.Second

// emergencyCondWaitThresholdFrac is the "waited >= 80% of max_wait_emergency"
// trigger that switches a car from polling cond_timedwait to a plain
// cond_wait (so it only wakes on an explicit broadcast, per step 2).
const emergencyCondWaitThresholdFrac = 0.8

// emergencyDeadline computes the absolute deadline for an EMERGENCY car:
// arrival time plus the configured maximum wait.
func emergencyDeadline(arrival time.Time, maxWait time.Duration) time.Time {
	return arrival.Add(maxWait)
}
