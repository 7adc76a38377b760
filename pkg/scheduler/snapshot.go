package scheduler

import "coopsched/pkg/slotpool"

// Snapshot is a point-in-time view for diagnostics. Taking one allocates.
type Snapshot struct {
	Tick      uint32
	Len       int
	Cap       int
	HasCursor bool
	Cursor    ID
	Tasks     []TaskInfo // ring order from the head
}

func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Tick:  r.now(),
		Len:   r.slots.Len(),
		Cap:   r.slots.Cap(),
		Tasks: make([]TaskInfo, 0, r.slots.Len()),
	}
	if t, ok := r.slots.Get(r.cursor); ok {
		s.HasCursor = true
		s.Cursor = t.id
	}
	r.slots.Each(func(_ slotpool.Handle, t *task) bool {
		s.Tasks = append(s.Tasks, t.info())
		return true
	})
	return s
}
