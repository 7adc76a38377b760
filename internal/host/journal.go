package host

import (
	"context"
	"time"

	"coopsched/internal/eventbus"
	"coopsched/internal/storage"
	"coopsched/pkg/logx"
	"coopsched/pkg/scheduler"
)

// Journal copies firing events from the bus into a storage.Store. It
// subscribes on construction so no event published after NewJournal is missed
// (unless the buffer overflows).
type Journal struct {
	store storage.Store
	log   logx.Logger

	events      <-chan eventbus.Event
	unsubscribe func()
}

// journaled lists the events worth persisting.
var journaled = map[scheduler.EventKind]bool{
	scheduler.EventExecuted:  true,
	scheduler.EventPanicked:  true,
	scheduler.EventRetired:   true,
	scheduler.EventRemoved:   true,
	scheduler.EventExhausted: true,
}

func NewJournal(bus eventbus.Bus, store storage.Store, buffer int, log logx.Logger) *Journal {
	ch, unsub := bus.Subscribe(buffer)
	return &Journal{store: store, log: log.With(logx.String("comp", "journal")), events: ch, unsubscribe: unsub}
}

// Run writes events until ctx is done. Write errors are logged and skipped.
func (j *Journal) Run(ctx context.Context) error {
	defer j.unsubscribe()
	for {
		select {
		case <-ctx.Done():
			j.drain()
			return nil
		case e, ok := <-j.events:
			if !ok {
				return nil
			}
			j.write(ctx, e)
		}
	}
}

// drain flushes what is already buffered, bounded in time.
func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case e, ok := <-j.events:
			if !ok {
				return
			}
			j.write(ctx, e)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, e eventbus.Event) {
	if !journaled[e.Kind] {
		return
	}
	err := j.store.AppendFiring(ctx, storage.Firing{
		At:     e.At,
		Tick:   e.Tick,
		Event:  e.Kind.String(),
		TaskID: uint32(e.ID),
		Name:   e.Name,
		Type:   e.Task.String(),
		Period: e.Period,
	})
	if err != nil {
		j.log.Warn("journal append failed", logx.String("task", e.Name), logx.String("event", e.Kind.String()), logx.Err(err))
	}
}
