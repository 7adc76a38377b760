package tick

import (
	"math"
	"sync/atomic"
	"time"
)

// Source returns the current tick. It must be monotonic modulo 2^32.
type Source func() uint32

// MaxPeriod is the largest period a due check can represent.
const MaxPeriod = math.MaxInt32

// Elapsed returns now-last as a signed distance, correct across wraparound.
func Elapsed(now, last uint32) int32 {
	return int32(now - last)
}

// Reached reports whether at least period ticks have passed since last.
// Periods above MaxPeriod never compare as reached.
func Reached(now, last, period uint32) bool {
	if period > MaxPeriod {
		return false
	}
	return Elapsed(now, last) >= int32(period)
}

// Manual is a host-driven clock. The zero value starts at tick 0.
type Manual struct {
	v atomic.Uint32
}

// NewManual returns a clock starting at start.
func NewManual(start uint32) *Manual {
	m := &Manual{}
	m.v.Store(start)
	return m
}

func (m *Manual) Now() uint32 { return m.v.Load() }

func (m *Manual) Set(t uint32) { m.v.Store(t) }

// Advance moves the clock forward by n ticks and returns the new value.
func (m *Manual) Advance(n uint32) uint32 { return m.v.Add(n) }

// Source adapts m for use as a time source.
func (m *Manual) Source() Source { return m.Now }

// Monotonic returns a source counting units elapsed since the call, derived
// from the runtime's monotonic clock. unit <= 0 defaults to one millisecond.
func Monotonic(unit time.Duration) Source {
	if unit <= 0 {
		unit = time.Millisecond
	}
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start) / unit)
	}
}

// FromDuration converts d to whole ticks of the given unit, rounding down.
// ok is false when the result does not fit a period.
func FromDuration(d, unit time.Duration) (ticks uint32, ok bool) {
	if unit <= 0 || d < 0 {
		return 0, false
	}
	n := int64(d / unit)
	if n > MaxPeriod {
		return 0, false
	}
	return uint32(n), true
}
