package scheduler

import "errors"

var (
	ErrInvalidCapacity = errors.New("scheduler: pool capacity must be > 0")
	ErrNilPool         = errors.New("scheduler: pool is nil")
	ErrPoolInUse       = errors.New("scheduler: pool already bound to a registry")
	ErrNilTimeSource   = errors.New("scheduler: time source is nil")

	// ErrPoolExhausted is returned by Create* when no free slot is left.
	ErrPoolExhausted = errors.New("scheduler: task pool exhausted")
	ErrNilCallback   = errors.New("scheduler: callback is nil")
	// ErrInvalidPeriod is returned for periods above tick.MaxPeriod, which a
	// signed due check cannot represent.
	ErrInvalidPeriod = errors.New("scheduler: period out of range")
)
