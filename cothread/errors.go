package cothread

import "errors"

// Sentinel errors returned by runtime primitives. Nothing in this package
// ever panics on a caller-facing error path; an entry function that panics
// with anything other than Exit's own unwinding signal is the one case
// treated as fatal (see fatal in scheduler.go), matching the
// platform-corruption case the original
// context-switcher would abort on.
var (
	ErrBadArgument   = errors.New("cothread: bad argument")
	ErrNoSuchThread  = errors.New("cothread: no such thread")
	ErrDeadlock      = errors.New("cothread: deadlock")
	ErrNoCapacity    = errors.New("cothread: no capacity")
	ErrNotOwner      = errors.New("cothread: not owner")
	ErrInUse         = errors.New("cothread: in use")
	ErrPermission    = errors.New("cothread: permission denied")
	ErrAlreadyJoined = errors.New("cothread: already joined")
)
