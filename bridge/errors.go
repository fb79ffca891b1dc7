package bridge

import "github.com/pkg/errors"

// Simulator errors are all recoverable: they surface as log records with
// stable prefixes rather than aborting the run (spec §7). These sentinels
// exist so tests and callers can still distinguish the cases that produce
// those records. They are created with github.com/pkg/errors and logged as
// they are, without further wrapping.
var (
	ErrQueueHeadMismatch       = errors.New("bridge: dequeued id does not match caller id")
	ErrEmptyQueue              = errors.New("bridge: queue is empty")
	ErrUnknownFlowPolicy       = errors.New("bridge: unknown flow policy")
	ErrUnknownSchedulingPolicy = errors.New("bridge: unknown scheduling policy")
	ErrZeroVehicles            = errors.New("bridge: configuration admits zero vehicles")
)
