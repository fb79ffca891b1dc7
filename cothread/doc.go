// Package cothread implements a user-space cooperative threading runtime.
//
// Logical threads ("TCBs") are never preempted: control passes only at an
// explicit yield, a block on a synchronization primitive, or termination.
// Go offers no portable stack-switching primitive, so each TCB owns a
// dedicated goroutine parked on its own resume channel, and the scheduler
// is a second dedicated goroutine parked on a shared handback channel.
// Dispatch is a plain unbuffered-channel handoff: the scheduler sends on a
// TCB's resume channel and then receives from handback, which blocks until
// that TCB suspends again. Because channel operations establish
// happens-before, exactly one goroutine is ever doing runtime work at a
// time, which is what makes the package's internal state safe to touch
// without any lock of its own — the model is, and remains, single-threaded
// cooperative.
//
// The bootstrap thread (id 0) is the exception: it runs on the caller's own
// goroutine (the one that called Init), reusing the host stack, exactly as
// the original C implementation reused main()'s stack for its bootstrap
// thread.
package cothread
