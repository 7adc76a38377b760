// Package host drives a scheduler.Registry built from the config file: one
// goroutine runs the engine, config reloads are applied between task runs,
// and lifecycle events are published on the event bus.
package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"coopsched/internal/config"
	"coopsched/internal/eventbus"
	"coopsched/pkg/logx"
	"coopsched/pkg/namehash"
	"coopsched/pkg/scheduler"
	"coopsched/pkg/tick"
)

// Options carries the host's collaborators. Zero fields get defaults.
type Options struct {
	Log logx.Logger
	Bus eventbus.Bus

	// Clock overrides the wall clock (tick.Monotonic of host.tick).
	Clock tick.Source

	// Logging, when set, receives logging config changes on reload.
	Logging *logx.Service
}

// Host owns a registry and everything that touches it. The registry is only
// used from the goroutine calling Run (or Step in tests).
type Host struct {
	log     logx.Logger
	bus     eventbus.Bus
	logging *logx.Service

	reg     *scheduler.Registry
	unit    time.Duration
	limiter *rate.Limiter

	cfg   *config.Config
	tasks map[string]*entry
	names map[scheduler.ID]string

	// creating names the task being created so an Exhausted event can be
	// attributed before the task has an ID mapping.
	creating string

	reloads chan *config.Config
	status  chan chan Status
}

type entry struct {
	cfg    config.TaskConfig
	handle scheduler.Handle
	act    *action
}

// New builds the registry and creates every configured task. Tasks that
// cannot be created (pool exhausted, hash collision) are logged and skipped.
func New(cfg *config.Config, opts Options) (*Host, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	unit, err := cfg.Host.TickUnit()
	if err != nil {
		return nil, err
	}
	hash, _ := namehash.ByName(strings.ToLower(strings.TrimSpace(cfg.Host.Hash)))

	h := &Host{
		log:     opts.Log.With(logx.String("comp", "host")),
		bus:     opts.Bus,
		logging: opts.Logging,
		unit:    unit,
		cfg:     cfg,
		tasks:   map[string]*entry{},
		names:   map[scheduler.ID]string{},
		reloads: make(chan *config.Config, 1),
		status:  make(chan chan Status),
	}
	if h.bus == nil {
		h.bus = eventbus.New()
	}
	if cfg.Host.PollRate > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.Host.PollRate), max(cfg.Host.PollBurst, 1))
	}

	clock := opts.Clock
	if clock == nil {
		clock = tick.Monotonic(unit)
	}
	pool, err := scheduler.NewPool(cfg.Host.EffectiveCapacity())
	if err != nil {
		return nil, err
	}
	h.reg, err = scheduler.New(clock, pool,
		scheduler.WithLogger(opts.Log),
		scheduler.WithObserver(h.observe),
		scheduler.WithHasher(hash),
	)
	if err != nil {
		return nil, err
	}

	for _, t := range cfg.Tasks {
		if err := h.create(t); err != nil {
			h.log.Warn("task not created", logx.String("task", t.Name), logx.Err(err))
		}
	}
	h.log.Info("host ready",
		logx.Int("tasks", h.reg.Len()),
		logx.Int("capacity", h.reg.Cap()),
		logx.Duration("tick", unit),
	)
	return h, nil
}

func (h *Host) Bus() eventbus.Bus { return h.bus }

// Registry exposes the registry for tests and diagnostics. Only touch it from
// the driving goroutine.
func (h *Host) Registry() *scheduler.Registry { return h.reg }

// Lookup returns the live handle for a configured task name.
func (h *Host) Lookup(name string) (scheduler.Handle, bool) {
	e, ok := h.tasks[name]
	if !ok {
		return scheduler.Handle{}, false
	}
	return e.handle, true
}

func (h *Host) create(t config.TaskConfig) error {
	name := strings.TrimSpace(t.Name)
	period, err := config.ParsePeriod(string(t.Period), h.unit)
	if err != nil {
		return err
	}
	act, err := h.newAction(name, t.Action)
	if err != nil {
		return err
	}
	id := h.reg.Key(name)
	if other, ok := h.names[id]; ok {
		return fmt.Errorf("name hash collides with task %q", other)
	}

	h.creating = name
	var handle scheduler.Handle
	if t.Type == config.TypeSingle {
		handle, err = h.reg.CreateSingleShot(id, h.runAction, act, period)
	} else {
		handle, err = h.reg.CreateRecurring(id, h.runAction, act, period)
	}
	h.creating = ""
	if err != nil {
		return err
	}
	h.names[id] = name
	h.tasks[name] = &entry{cfg: t, handle: handle, act: act}
	if t.Inactive {
		h.reg.Deactivate(handle)
	}
	return nil
}

// observe runs on the driving goroutine for every registry event.
func (h *Host) observe(e scheduler.Event) {
	name, ok := h.names[e.ID]
	if !ok {
		name = h.creating
	}
	if e.Kind == scheduler.EventRetired || e.Kind == scheduler.EventRemoved {
		delete(h.names, e.ID)
		delete(h.tasks, name)
	}
	if e.Kind == scheduler.EventReady {
		return
	}
	h.bus.Publish(eventbus.Event{Event: e, Name: name})
}

// Step applies a pending reload and runs at most one due task.
func (h *Host) Step() bool {
	select {
	case cfg := <-h.reloads:
		h.apply(cfg)
	default:
	}
	return h.reg.RunNext()
}

// Run drives the engine until ctx is done. When nothing is due it sleeps for
// one tick or until a reload arrives.
func (h *Host) Run(ctx context.Context) error {
	idle := time.NewTimer(h.unit)
	defer idle.Stop()
	defer func() {
		snap := h.reg.Snapshot()
		h.log.Info("engine stopped", logx.Uint32("tick", snap.Tick), logx.Int("tasks", snap.Len))
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case reply := <-h.status:
			reply <- h.snapshot()
		default:
		}
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		if h.Step() {
			continue
		}

		idle.Reset(h.unit)
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-h.reloads:
			h.apply(cfg)
		case reply := <-h.status:
			reply <- h.snapshot()
		case <-idle.C:
		}
	}
}

// Reload queues cfg for the driving goroutine. An unapplied older config is
// replaced.
func (h *Host) Reload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	for {
		select {
		case h.reloads <- cfg:
			return
		default:
		}
		select {
		case <-h.reloads:
		default:
		}
	}
}

// Follow forwards every config published on ch to Reload until ch closes or
// ctx is done.
func (h *Host) Follow(ctx context.Context, ch <-chan *config.Config) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-ch:
			if !ok {
				return nil
			}
			h.Reload(cfg)
		}
	}
}
