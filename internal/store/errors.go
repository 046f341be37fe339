package store

import "errors"

// Sentinel errors surfaced across the core packages. Callers should use
// errors.Is against these rather than comparing strings.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrDependencyNotMet = errors.New("dependency not met")
	ErrDependencyCycle  = errors.New("dependency would create a cycle")
	ErrRollAlreadyDone  = errors.New("roll already done for this effective date")
	ErrRollNotAvailable = errors.New("roll not available yet")
	ErrAlreadyFinalized = errors.New("effective date already finalized")
)
