package scheduler

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopsched/pkg/tick"
)

func TestNewValidatesArguments(t *testing.T) {
	t.Parallel()
	_, err := NewPool(0)
	require.ErrorIs(t, err, ErrInvalidCapacity)

	pool, err := NewPool(2)
	require.NoError(t, err)
	_, err = New(nil, pool)
	require.ErrorIs(t, err, ErrNilTimeSource)
	_, err = New(tick.NewManual(0).Source(), nil)
	require.ErrorIs(t, err, ErrNilPool)

	_, err = New(tick.NewManual(0).Source(), pool)
	require.NoError(t, err)
	_, err = New(tick.NewManual(0).Source(), pool)
	require.ErrorIs(t, err, ErrPoolInUse)
}

func TestEmptyRegistry(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	_, ok := r.reg.Cursor()
	assert.False(t, ok)
	_, ok = r.reg.SelectDue()
	assert.False(t, ok)
	_, ok = r.reg.FindByName("RemoveTask")
	assert.False(t, ok)
	assert.False(t, r.reg.RunNext())

	// Phases on a zero handle never fault.
	r.reg.Execute(Handle{})
	r.reg.Requeue(Handle{})
	assert.False(t, r.reg.Remove(Handle{}))
}

func TestCreateRejectsBadInput(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	_, err := r.reg.CreateRecurring(1, nil, nil, 5)
	require.ErrorIs(t, err, ErrNilCallback)
	_, err = r.reg.CreateRecurring(1, func(any) {}, nil, tick.MaxPeriod+1)
	require.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Equal(t, 0, r.reg.Len())
}

func TestPoolExhaustion(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	r.single("Single5", 5)
	r.recurring("ChangingTask", 7)
	r.single("Single2", 2)
	r.recurring("RemoveTask", 10)

	h, err := r.reg.CreateRecurringNamed("RetriggerFull", r.record(), "x", 10)
	require.True(t, errors.Is(err, ErrPoolExhausted))
	assert.True(t, h.IsZero())
	h, err = r.reg.CreateSingleShotNamed("SingleFull", r.record(), "x", 10)
	require.ErrorIs(t, err, ErrPoolExhausted)
	assert.True(t, h.IsZero())
	assert.Equal(t, 4, r.reg.Len())
}

func TestCreateFindRemoveClearsCursor(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	h := r.single("Single5", 5)

	found, ok := r.reg.FindByName("Single5")
	require.True(t, ok)
	require.Equal(t, h, found)
	cur, ok := r.reg.Cursor()
	require.True(t, ok)
	require.Equal(t, h, cur)

	require.True(t, r.reg.Remove(found))
	_, ok = r.reg.Cursor()
	assert.False(t, ok, "removing the sole task empties the cursor")
	_, ok = r.reg.FindByName("Single5")
	assert.False(t, ok)
	assert.False(t, r.reg.Remove(found), "stale handle")
}

func TestRemovingCursorAdvancesToSuccessor(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	a := r.recurring("a", 1)
	b := r.recurring("b", 1)
	r.recurring("c", 1)

	cur, _ := r.reg.Cursor()
	require.Equal(t, a, cur)
	require.True(t, r.reg.Remove(a))
	cur, _ = r.reg.Cursor()
	assert.Equal(t, b, cur)

	// Removing a non-cursor task leaves the cursor alone.
	c, _ := r.reg.FindByName("c")
	require.True(t, r.reg.Remove(c))
	cur, _ = r.reg.Cursor()
	assert.Equal(t, b, cur)
}

func TestNewTaskFirstDueAfterOnePeriod(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	r.clk.Set(100)
	r.recurring("p", 10)

	r.clk.Set(109)
	_, ok := r.reg.SelectDue()
	assert.False(t, ok)
	r.clk.Set(110)
	h, ok := r.reg.SelectDue()
	require.True(t, ok)
	info, _ := r.reg.Info(h)
	assert.Equal(t, Ready, info.Status)
	assert.Equal(t, uint32(110), info.LastTimestamp)
}

func TestRecurringNotEligibleBeforeNextPeriod(t *testing.T) {
	t.Parallel()
	for _, p := range []uint32{1, 3, 7, 100} {
		r := newRig(t, 1)
		h := r.recurring("p", p)
		r.clk.Set(p)
		got, ok := r.reg.SelectDue()
		require.True(t, ok)
		require.Equal(t, h, got)
		r.reg.Execute(got)
		r.reg.Requeue(got)

		for dt := uint32(0); dt < p; dt++ {
			r.clk.Set(p + dt)
			_, ok := r.reg.SelectDue()
			require.False(t, ok, "period %d: eligible again at +%d", p, dt)
		}
		r.clk.Set(2 * p)
		_, ok = r.reg.SelectDue()
		require.True(t, ok)
	}
}

func TestSingleShotRunsOnceAndRetires(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	h := r.single("once", 3)

	r.runUntil(50)
	require.Equal(t, []uint32{3}, r.ticks())
	_, ok := r.reg.FindByName("once")
	assert.False(t, ok)
	_, ok = r.reg.Info(h)
	assert.False(t, ok)
	assert.Equal(t, 0, r.reg.Len())
	_, ok = r.reg.Cursor()
	assert.False(t, ok)
}

func TestRoundRobinAmongDueTasks(t *testing.T) {
	t.Parallel()
	r := newRig(t, 8)
	names := []string{"t0", "t1", "t2", "t3", "t4"}
	for _, n := range names {
		r.recurring(n, 4)
	}
	r.clk.Set(4)

	var got []string
	for range names {
		h, ok := r.reg.SelectDue()
		require.True(t, ok)
		r.reg.Execute(h)
		r.reg.Requeue(h)
		got = append(got, r.fired[len(r.fired)-1].Name)
	}
	if diff := cmp.Diff(names, got); diff != "" {
		t.Fatalf("service order (-want +got):\n%s", diff)
	}
	_, ok := r.reg.SelectDue()
	assert.False(t, ok, "no repeats before the period elapses")
}

func TestRoundRobinResumesAfterCursor(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	r.recurring("a", 2)
	r.recurring("b", 2)
	r.recurring("c", 2)

	r.clk.Set(2)
	require.True(t, r.reg.RunNext()) // a
	r.clk.Set(4)
	// Cursor is at b, so b and c go before a is re-checked.
	require.True(t, r.reg.RunNext())
	require.True(t, r.reg.RunNext())
	require.True(t, r.reg.RunNext())
	got := []string{}
	for _, f := range r.fired {
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestSelectDueMissLeavesCursor(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	r.recurring("a", 5)
	b := r.recurring("b", 1)
	r.clk.Set(1)
	require.True(t, r.reg.RunNext()) // b; cursor wraps to a
	cur, _ := r.reg.Cursor()
	before := cur
	r.clk.Set(1)
	_, ok := r.reg.SelectDue()
	require.False(t, ok)
	cur, _ = r.reg.Cursor()
	assert.Equal(t, before, cur)
	assert.NotEqual(t, b, cur)
}

func TestDueCheckAcrossCounterWrap(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	start := uint32(math.MaxUint32 - 3)
	r.clk.Set(start)
	r.recurring("w", 10)

	r.runUntil(start + 30) // wraps past zero
	want := []uint32{start + 10, start + 20}
	assert.Equal(t, want, r.ticks())
	assert.Equal(t, uint32(6), want[0])
}

func TestPhasesIgnoreWrongStatus(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	h := r.recurring("a", 1)

	r.reg.Execute(h) // Active, not Ready
	r.reg.Requeue(h) // Active, not Clean
	st, _ := r.reg.Status(h)
	assert.Equal(t, Active, st)
	assert.Empty(t, r.fired)

	r.clk.Set(1)
	got, ok := r.reg.SelectDue()
	require.True(t, ok)
	r.reg.Requeue(got) // Ready, not Clean
	st, _ = r.reg.Status(got)
	assert.Equal(t, Ready, st)
	r.reg.Execute(got)
	r.reg.Execute(got) // already Clean
	assert.Len(t, r.fired, 1)
	r.reg.Requeue(got)
	st, _ = r.reg.Status(got)
	assert.Equal(t, Active, st)
}

func TestDeactivateReactivateRebaselines(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	b := r.recurring("B", 7)
	r.runUntil(31) // 7 14 21 28
	require.True(t, r.reg.Deactivate(b))
	assert.False(t, r.reg.Deactivate(b), "already inactive")

	r.runUntil(51)
	require.Equal(t, []uint32{7, 14, 21, 28}, r.ticks())

	require.True(t, r.reg.ChangeStatus(b, Active))
	info, _ := r.reg.Info(b)
	assert.Equal(t, uint32(7), info.Period, "period survives deactivation")
	r.runUntil(66)
	assert.Equal(t, []uint32{7, 14, 21, 28, 58, 65}, r.ticks())
}

func TestChangeStatusRejectsEngineStates(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	h := r.recurring("a", 1)
	for _, s := range []Status{Ready, Running, Clean} {
		assert.False(t, r.reg.ChangeStatus(h, s))
	}
	assert.False(t, r.reg.Activate(h), "already active")
}

func TestDeactivateReadyTaskSkipsExecution(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	h := r.recurring("a", 1)
	r.clk.Set(1)
	got, ok := r.reg.SelectDue()
	require.True(t, ok)
	require.True(t, r.reg.Deactivate(h))
	r.reg.Execute(got)
	r.reg.Requeue(got)
	assert.Empty(t, r.fired)
	st, _ := r.reg.Status(h)
	assert.Equal(t, Inactive, st)
}

func TestChangePeriod(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	h := r.recurring("a", 10)
	r.runUntil(11)
	require.True(t, r.reg.ChangePeriod(h, 3))
	assert.False(t, r.reg.ChangePeriod(h, tick.MaxPeriod+1))
	r.runUntil(20)
	assert.Equal(t, []uint32{10, 13, 16, 19}, r.ticks())
}

func TestRefreshRestartsWindow(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	h := r.recurring("a", 5)
	r.clk.Set(4)
	require.True(t, r.reg.Refresh(h))
	r.runUntil(10)
	assert.Equal(t, []uint32{9}, r.ticks())
}

func TestChangeCallbackBeforeRun(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	wrong := 0
	h, err := r.reg.CreateRecurringNamed("CallBackChange", func(any) { wrong++ }, nil, 1)
	require.NoError(t, err)
	require.True(t, r.reg.ChangeCallback(h, r.record(), "right"))
	r.runUntil(4)
	assert.Zero(t, wrong)
	assert.Equal(t, []uint32{1, 2, 3}, r.ticks())

	// nil fn keeps the function and swaps only the data.
	require.True(t, r.reg.ChangeCallback(h, nil, "data-only"))
	r.runUntil(5)
	assert.Equal(t, "data-only", r.fired[len(r.fired)-1].Name)
}

func TestChangeCallbackDuringRunAffectsNextRunOnly(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	var calls []string
	var h Handle
	second := func(any) { calls = append(calls, "second") }
	first := func(any) {
		calls = append(calls, "first")
		r.reg.ChangeCallback(h, second, nil)
		calls = append(calls, "first-end")
	}
	var err error
	h, err = r.reg.CreateRecurring(1, first, nil, 1)
	require.NoError(t, err)
	r.runUntil(3)
	assert.Equal(t, []string{"first", "first-end", "second"}, calls)
}

func TestCallbackMutatesOtherTasks(t *testing.T) {
	t.Parallel()
	r := newRig(t, 4)
	victim := r.recurring("victim", 1)
	next := r.recurring("next", 2)
	_, err := r.reg.CreateRecurring(99, func(any) {
		r.reg.Remove(victim)
		r.reg.ChangePeriod(next, 1)
	}, nil, 1)
	require.NoError(t, err)

	r.runUntil(4)
	_, ok := r.reg.Info(victim)
	assert.False(t, ok)
	got := []string{}
	for _, f := range r.fired {
		got = append(got, f.String())
	}
	// Tick 1: victim runs first (cursor), then the remover, whose new period
	// makes next due within the same tick.
	assert.Equal(t, []string{"1:victim", "1:next", "2:next", "3:next"}, got)
}

func TestSelfRemovalIsDeferred(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	var self Handle
	runs := 0
	self, err := r.reg.CreateRecurring(7, func(any) {
		runs++
		require.True(t, r.reg.Remove(self))
		_, ok := r.reg.FindByIdentifier(7)
		assert.False(t, ok, "hidden from lookup immediately")
		_, ok = r.reg.Info(self)
		assert.True(t, ok, "slot still held while running")
	}, nil, 1)
	require.NoError(t, err)

	r.runUntil(5)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, r.reg.Len())
	_, ok := r.reg.Cursor()
	assert.False(t, ok)
}

func TestSelfDeactivationHonoredByRequeue(t *testing.T) {
	t.Parallel()
	r := newRig(t, 1)
	var self Handle
	runs := 0
	self, err := r.reg.CreateRecurring(3, func(any) {
		runs++
		r.reg.Deactivate(self)
	}, nil, 1)
	require.NoError(t, err)
	r.runUntil(5)
	assert.Equal(t, 1, runs)
	st, _ := r.reg.Status(self)
	assert.Equal(t, Inactive, st)

	require.True(t, r.reg.Activate(self))
	r.runUntil(7)
	assert.Equal(t, 2, runs)
}

func TestReentrantEngineCallsReturnNothing(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	r.recurring("other", 1)
	nested := true
	_, err := r.reg.CreateRecurring(5, func(any) {
		_, ok := r.reg.SelectDue()
		nested = nested && !ok
		nested = nested && !r.reg.RunNext()
	}, nil, 1)
	require.NoError(t, err)
	r.runUntil(3)
	assert.True(t, nested)
	assert.Len(t, r.fired, 2, "other still runs at ticks 1 and 2")
}

func TestPanickingCallbackIsContained(t *testing.T) {
	t.Parallel()
	var events []EventKind
	r := newRig(t, 2, WithObserver(func(e Event) { events = append(events, e.Kind) }))
	h, err := r.reg.CreateRecurring(1, func(any) { panic("boom") }, nil, 1)
	require.NoError(t, err)

	r.clk.Set(1)
	require.True(t, r.reg.RunNext())
	st, _ := r.reg.Status(h)
	assert.Equal(t, Active, st)
	assert.Contains(t, events, EventPanicked)

	// Engine is usable afterwards.
	r.recurring("ok", 1)
	r.runUntil(3)
	assert.Equal(t, []uint32{2}, r.ticks())
}

func TestObserverSeesLifecycle(t *testing.T) {
	t.Parallel()
	var events []Event
	r := newRig(t, 1, WithObserver(func(e Event) { events = append(events, e) }))
	r.single("s", 2)
	_, err := r.reg.CreateRecurring(2, func(any) {}, nil, 1)
	require.ErrorIs(t, err, ErrPoolExhausted)
	r.runUntil(3)

	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind.String()
	}
	assert.Equal(t, []string{"created", "exhausted", "ready", "executed", "retired"}, kinds)
	assert.Equal(t, uint32(2), events[len(events)-1].Tick)
	assert.Equal(t, SingleShot, events[0].Task)
}

func TestNameCollisionReturnsFirstInRing(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2, WithHasher(func([]byte) uint32 { return 42 }))
	first := r.recurring("alpha", 1)
	r.recurring("beta", 1)
	h, ok := r.reg.FindByName("beta")
	require.True(t, ok)
	assert.Equal(t, first, h)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	r := newRig(t, 3)
	r.recurring("a", 4)
	r.single("b", 9)
	r.clk.Set(4)
	r.reg.RunNext()

	s := r.reg.Snapshot()
	assert.Equal(t, 2, s.Len)
	assert.Equal(t, 3, s.Cap)
	assert.True(t, s.HasCursor)
	assert.Equal(t, r.reg.Key("b"), s.Cursor)
	require.Len(t, s.Tasks, 2)
	assert.Equal(t, Recurring, s.Tasks[0].Kind)
	assert.Equal(t, uint32(4), s.Tasks[0].LastTimestamp)
	assert.Equal(t, SingleShot, s.Tasks[1].Kind)
}

func TestDrainStopsAtLimit(t *testing.T) {
	t.Parallel()
	r := newRig(t, 2)
	r.recurring("zero", 0)
	assert.Equal(t, 2, r.reg.Drain(0))
	assert.Equal(t, 5, r.reg.Drain(5))
}

func TestStatusAndKindStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "single-shot", SingleShot.String())
	assert.Equal(t, "status(9)", Status(9).String())
	assert.Equal(t, "unknown", EventKind(200).String())
}
