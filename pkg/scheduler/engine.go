package scheduler

import (
	"fmt"

	"coopsched/pkg/logx"
	"coopsched/pkg/tick"
)

// SelectDue scans the ring once, starting at the cursor, for an Active task
// whose period has elapsed. The match becomes Ready, its LastTimestamp is set
// to now, and the cursor moves to its successor.
func (r *Registry) SelectDue() (Handle, bool) {
	if r.running || r.cursor.IsZero() {
		return Handle{}, false
	}
	if !r.slots.Valid(r.cursor) {
		// Cursor must reference a linked task; recover from the head if not.
		r.cursor, _ = r.slots.Head()
		if r.cursor.IsZero() {
			return Handle{}, false
		}
	}

	now := r.now()
	start := r.cursor
	cur := start
	for {
		t, _ := r.slots.Get(cur)
		if t.status == Active && tick.Reached(now, t.last, t.period) {
			t.status = Ready
			t.last = now
			r.cursor, _ = r.slots.Next(cur)
			r.emitTask(EventReady, t, now)
			return Handle{ref: cur}, true
		}
		cur, _ = r.slots.Next(cur)
		if cur == start {
			return Handle{}, false
		}
	}
}

// Execute runs a Ready task's callback: Ready -> Running -> Clean. Any other
// status is a no-op. A panic in the callback is recovered and logged; the task
// still ends Clean.
func (r *Registry) Execute(h Handle) {
	if r.running {
		return
	}
	t, ok := r.slots.Get(h.ref)
	if !ok || t.status != Ready {
		return
	}
	t.status = Running
	fn, data := t.fn, t.data

	panicked := r.invoke(t.id, fn, data)

	// The slot cannot have been freed: Remove on a Running task is deferred.
	t.status = Clean
	if panicked {
		r.emitTask(EventPanicked, t, r.now())
		return
	}
	r.emitTask(EventExecuted, t, r.now())
}

func (r *Registry) invoke(id ID, fn Callback, data any) (panicked bool) {
	r.running = true
	defer func() {
		r.running = false
		if rec := recover(); rec != nil {
			panicked = true
			r.log.Error("task callback panicked",
				logx.Uint32("id", uint32(id)),
				logx.String("panic", fmt.Sprint(rec)),
				logx.Stack(logx.StackTrace(3, 16)),
			)
		}
	}()
	fn(data)
	return false
}

// Requeue finishes a Clean task's cycle. SingleShot tasks (and tasks that
// removed themselves) are unlinked; Recurring tasks go back to Active, or to
// Inactive if they were deactivated while running. Other statuses are ignored.
func (r *Registry) Requeue(h Handle) {
	if r.running {
		return
	}
	t, ok := r.slots.Get(h.ref)
	if !ok || t.status != Clean {
		return
	}
	switch {
	case t.retire:
		r.unlink(h.ref, t, EventRemoved)
	case t.kind == SingleShot:
		r.unlink(h.ref, t, EventRetired)
	case t.park:
		t.park = false
		t.status = Inactive
		r.emitTask(EventDeactivated, t, r.now())
	default:
		t.status = Active
	}
}

// RunNext selects, executes and requeues at most one due task. It reports
// whether a task ran.
func (r *Registry) RunNext() bool {
	h, ok := r.SelectDue()
	if !ok {
		return false
	}
	r.Execute(h)
	r.Requeue(h)
	return true
}

// Drain calls RunNext until no task is due at the current tick or limit runs
// have happened (limit <= 0 means Cap()). It returns the number of runs.
func (r *Registry) Drain(limit int) int {
	if limit <= 0 {
		limit = r.slots.Cap()
	}
	n := 0
	for n < limit && r.RunNext() {
		n++
	}
	return n
}
