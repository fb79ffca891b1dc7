// Package bridge implements the single-lane bridge simulator: cars
// arriving from two directions arbitrate access to a shared crossing
// under one of three flow policies, ordered within each side's queue by
// one of the cothread runtime's five scheduling policies, with deadline
// preemption for EMERGENCY vehicles. It is built entirely on the cothread
// package's primitives — every car and the signal actor run as cothread
// TCBs, and the bridge/queue mutexes are cothread.Mutex, not sync.Mutex.
package bridge
