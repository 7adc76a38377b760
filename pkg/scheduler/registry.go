package scheduler

import (
	"coopsched/pkg/logx"
	"coopsched/pkg/namehash"
	"coopsched/pkg/slotpool"
	"coopsched/pkg/tick"
)

// Registry owns the task pool, the rotation cursor, and the time source.
type Registry struct {
	pool  *Pool
	slots *slotpool.Pool[task]
	now   tick.Source

	// cursor is where the next SelectDue scan starts. Zero iff no task is linked.
	cursor slotpool.Handle

	// running is set while a callback executes; engine phases are no-ops then.
	running bool

	hash    namehash.Func
	log     logx.Logger
	observe Observer
}

type Option func(*Registry)

func WithLogger(log logx.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithObserver installs a synchronous lifecycle event callback.
func WithObserver(fn Observer) Option {
	return func(r *Registry) { r.observe = fn }
}

// WithHasher selects the hash used by the *Named helpers. Default: namehash.SDBM.
func WithHasher(fn namehash.Func) Option {
	return func(r *Registry) {
		if fn != nil {
			r.hash = fn
		}
	}
}

// New binds a time source and a pool. The pool must not be bound to another
// registry.
func New(now tick.Source, pool *Pool, opts ...Option) (*Registry, error) {
	if now == nil {
		return nil, ErrNilTimeSource
	}
	if pool == nil || pool.slots == nil {
		return nil, ErrNilPool
	}
	if pool.bound {
		return nil, ErrPoolInUse
	}
	r := &Registry{
		pool:  pool,
		slots: pool.slots,
		now:   now,
		hash:  namehash.SDBM,
	}
	for _, o := range opts {
		o(r)
	}
	pool.bound = true
	return r, nil
}

// CreateRecurring adds a task that runs every period ticks, first at
// creation+period. On a full pool it returns a zero Handle and ErrPoolExhausted.
func (r *Registry) CreateRecurring(id ID, fn Callback, data any, period uint32) (Handle, error) {
	return r.create(id, Recurring, fn, data, period)
}

// CreateSingleShot adds a task that runs once, delay ticks after creation,
// and is then removed.
func (r *Registry) CreateSingleShot(id ID, fn Callback, data any, delay uint32) (Handle, error) {
	return r.create(id, SingleShot, fn, data, delay)
}

func (r *Registry) create(id ID, kind Kind, fn Callback, data any, period uint32) (Handle, error) {
	if fn == nil {
		return Handle{}, ErrNilCallback
	}
	if period > tick.MaxPeriod {
		return Handle{}, ErrInvalidPeriod
	}
	ref, t, ok := r.slots.PushBack()
	if !ok {
		r.log.Warn("task pool exhausted",
			logx.Uint32("id", uint32(id)),
			logx.String("kind", kind.String()),
			logx.Int("cap", r.slots.Cap()),
		)
		r.emit(Event{Kind: EventExhausted, ID: id, Task: kind, Tick: r.now(), Period: period})
		return Handle{}, ErrPoolExhausted
	}
	now := r.now()
	*t = task{
		id:     id,
		kind:   kind,
		status: Active,
		period: period,
		last:   now,
		fn:     fn,
		data:   data,
	}
	if r.cursor.IsZero() {
		r.cursor = ref
	}
	r.log.Debug("task created",
		logx.Uint32("id", uint32(id)),
		logx.String("kind", kind.String()),
		logx.Uint32("period", period),
		logx.Uint32("tick", now),
	)
	r.emitTask(EventCreated, t, now)
	return Handle{ref: ref}, nil
}

// FindByIdentifier scans the ring from its head and returns the first task
// with the given id. Tasks removed from inside their own callback are already
// invisible here.
func (r *Registry) FindByIdentifier(id ID) (Handle, bool) {
	var found slotpool.Handle
	r.slots.Each(func(h slotpool.Handle, t *task) bool {
		if t.id == id && !t.retire {
			found = h
			return false
		}
		return true
	})
	if found.IsZero() {
		return Handle{}, false
	}
	return Handle{ref: found}, true
}

// Remove unlinks h and frees its slot. If h is the cursor, the cursor moves to
// its successor (or becomes empty when h was the only task).
//
// A task removing itself from its own callback is only marked; Requeue frees
// the slot afterwards. Remove reports false for stale handles.
func (r *Registry) Remove(h Handle) bool {
	t, ok := r.slots.Get(h.ref)
	if !ok || t.retire {
		return false
	}
	if t.status == Running {
		t.retire = true
		r.log.Debug("task removal deferred until requeue", logx.Uint32("id", uint32(t.id)))
		return true
	}
	r.unlink(h.ref, t, EventRemoved)
	return true
}

func (r *Registry) unlink(ref slotpool.Handle, t *task, ev EventKind) {
	e := Event{Kind: ev, ID: t.id, Task: t.kind, Tick: r.now(), Period: t.period}
	if r.cursor == ref {
		r.cursor, _ = r.slots.Next(ref)
		if r.cursor == ref {
			r.cursor = slotpool.Handle{}
		}
	}
	r.slots.Remove(ref)
	r.log.Debug("task unlinked", logx.String("event", ev.String()), logx.Uint32("id", uint32(e.ID)), logx.Uint32("tick", e.Tick))
	r.emit(e)
}

// Info returns a copy of the task's scheduling fields.
func (r *Registry) Info(h Handle) (TaskInfo, bool) {
	t, ok := r.slots.Get(h.ref)
	if !ok {
		return TaskInfo{}, false
	}
	return t.info(), true
}

// Status returns the task's status; ok is false for stale handles.
func (r *Registry) Status(h Handle) (Status, bool) {
	t, ok := r.slots.Get(h.ref)
	if !ok {
		return Inactive, false
	}
	return t.status, true
}

// Cursor returns the task the next scan starts at.
func (r *Registry) Cursor() (Handle, bool) {
	if r.cursor.IsZero() {
		return Handle{}, false
	}
	return Handle{ref: r.cursor}, true
}

// Len returns the number of linked tasks.
func (r *Registry) Len() int { return r.slots.Len() }

// Cap returns the pool capacity.
func (r *Registry) Cap() int { return r.slots.Cap() }

// Now reads the registry's time source.
func (r *Registry) Now() uint32 { return r.now() }

func (r *Registry) emitTask(kind EventKind, t *task, now uint32) {
	if r.observe == nil {
		return
	}
	r.observe(Event{Kind: kind, ID: t.id, Task: t.kind, Tick: now, Period: t.period})
}

func (r *Registry) emit(e Event) {
	if r.observe != nil {
		r.observe(e)
	}
}
