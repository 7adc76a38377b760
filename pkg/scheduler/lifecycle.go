package scheduler

import (
	"coopsched/pkg/logx"
	"coopsched/pkg/tick"
)

// ChangeStatus moves a task to Active or Inactive. Ready, Running and Clean
// belong to the engine and are rejected.
func (r *Registry) ChangeStatus(h Handle, s Status) bool {
	switch s {
	case Active:
		return r.Activate(h)
	case Inactive:
		return r.Deactivate(h)
	default:
		return false
	}
}

// Activate re-arms an Inactive task. Its next due tick is measured from now.
// On a task whose own callback deactivated it, Activate cancels the pending
// deactivation.
func (r *Registry) Activate(h Handle) bool {
	t, ok := r.slots.Get(h.ref)
	if !ok || t.retire {
		return false
	}
	if t.park {
		t.park = false
		return true
	}
	if t.status != Inactive {
		return false
	}
	now := r.now()
	t.status = Active
	t.last = now
	r.log.Debug("task activated", logx.Uint32("id", uint32(t.id)), logx.Uint32("tick", now))
	r.emitTask(EventActivated, t, now)
	return true
}

// Deactivate stops a task from being selected while keeping its period.
// A Running or Clean task finishes its current cycle first and is left
// Inactive by Requeue.
func (r *Registry) Deactivate(h Handle) bool {
	t, ok := r.slots.Get(h.ref)
	if !ok || t.retire {
		return false
	}
	switch t.status {
	case Inactive:
		return false
	case Running, Clean:
		t.park = true
		return true
	}
	now := r.now()
	t.status = Inactive
	r.log.Debug("task deactivated", logx.Uint32("id", uint32(t.id)), logx.Uint32("tick", now))
	r.emitTask(EventDeactivated, t, now)
	return true
}

// ChangePeriod replaces the task's period. It takes effect at the next due check.
func (r *Registry) ChangePeriod(h Handle, period uint32) bool {
	if period > tick.MaxPeriod {
		return false
	}
	t, ok := r.slots.Get(h.ref)
	if !ok || t.retire {
		return false
	}
	t.period = period
	r.emitTask(EventPeriodChanged, t, r.now())
	return true
}

// ChangeCallback replaces the task's data and, when fn is non-nil, its
// function. A run already in progress keeps the callback it started with.
func (r *Registry) ChangeCallback(h Handle, fn Callback, data any) bool {
	t, ok := r.slots.Get(h.ref)
	if !ok || t.retire {
		return false
	}
	if fn != nil {
		t.fn = fn
	}
	t.data = data
	r.emitTask(EventCallbackChanged, t, r.now())
	return true
}

// Refresh restarts the task's period window at the current tick.
func (r *Registry) Refresh(h Handle) bool {
	t, ok := r.slots.Get(h.ref)
	if !ok || t.retire {
		return false
	}
	t.last = r.now()
	return true
}
