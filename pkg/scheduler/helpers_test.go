package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"coopsched/pkg/tick"
)

type firing struct {
	Tick uint32
	Name string
}

func (f firing) String() string { return fmt.Sprintf("%d:%s", f.Tick, f.Name) }

// rig drives a registry on a manual clock and records every callback.
type rig struct {
	t     *testing.T
	clk   *tick.Manual
	reg   *Registry
	fired []firing
}

func newRig(t *testing.T, capacity int, opts ...Option) *rig {
	t.Helper()
	pool, err := NewPool(capacity)
	require.NoError(t, err)
	clk := tick.NewManual(0)
	reg, err := New(clk.Source(), pool, opts...)
	require.NoError(t, err)
	return &rig{t: t, clk: clk, reg: reg}
}

// record returns a callback that appends (now, data.(string)).
func (r *rig) record() Callback {
	return func(data any) {
		r.fired = append(r.fired, firing{Tick: r.clk.Now(), Name: data.(string)})
	}
}

func (r *rig) recurring(name string, period uint32) Handle {
	r.t.Helper()
	h, err := r.reg.CreateRecurringNamed(name, r.record(), name, period)
	require.NoError(r.t, err)
	return h
}

func (r *rig) single(name string, delay uint32) Handle {
	r.t.Helper()
	h, err := r.reg.CreateSingleShotNamed(name, r.record(), name, delay)
	require.NoError(r.t, err)
	return h
}

// runUntil drains every due task at each tick from the current clock value
// up to (not including) end, then leaves the clock at end.
func (r *rig) runUntil(end uint32) {
	for now := r.clk.Now(); now != end; now++ {
		r.clk.Set(now)
		r.reg.Drain(0)
	}
	r.clk.Set(end)
}

func (r *rig) ticks() []uint32 {
	out := make([]uint32, len(r.fired))
	for i, f := range r.fired {
		out[i] = f.Tick
	}
	return out
}
