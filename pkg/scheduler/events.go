package scheduler

// EventKind names a task lifecycle transition reported to an Observer.
type EventKind uint8

const (
	EventCreated EventKind = iota + 1
	EventExhausted
	EventReady
	EventExecuted
	EventPanicked
	EventRetired
	EventRemoved
	EventActivated
	EventDeactivated
	EventPeriodChanged
	EventCallbackChanged
)

var eventNames = [...]string{
	EventCreated:         "created",
	EventExhausted:       "exhausted",
	EventReady:           "ready",
	EventExecuted:        "executed",
	EventPanicked:        "panicked",
	EventRetired:         "retired",
	EventRemoved:         "removed",
	EventActivated:       "activated",
	EventDeactivated:     "deactivated",
	EventPeriodChanged:   "period_changed",
	EventCallbackChanged: "callback_changed",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) && eventNames[k] != "" {
		return eventNames[k]
	}
	return "unknown"
}

// Event describes one lifecycle transition. Tick is the registry time when it
// happened.
type Event struct {
	Kind   EventKind
	ID     ID
	Task   Kind
	Tick   uint32
	Period uint32
}

// Observer receives events synchronously on the driving goroutine. It must
// not call back into the registry.
type Observer func(Event)
