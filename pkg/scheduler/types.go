package scheduler

import (
	"fmt"

	"coopsched/pkg/slotpool"
)

// ID identifies a task. Callers assign it, or derive it from a name with the
// registry's hash function.
type ID uint32

// Callback is invoked with the data supplied at creation (or by ChangeCallback).
type Callback func(data any)

type Kind uint8

const (
	Recurring Kind = iota
	SingleShot
)

func (k Kind) String() string {
	switch k {
	case Recurring:
		return "recurring"
	case SingleShot:
		return "single-shot"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Status moves Inactive/Active -> Ready -> Running -> Clean -> Active.
type Status uint8

const (
	Inactive Status = iota
	Active
	Ready
	Running
	Clean
)

func (s Status) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Clean:
		return "clean"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Handle refers to a task slot. The zero Handle refers to nothing. A Handle
// goes stale once its task is removed; stale handles are ignored by every
// Registry method.
type Handle struct {
	ref slotpool.Handle
}

func (h Handle) IsZero() bool { return h.ref.IsZero() }

// task is the slot payload.
type task struct {
	id     ID
	kind   Kind
	status Status
	period uint32
	last   uint32
	fn     Callback
	data   any

	// Set when the task's own callback removes or deactivates it; applied by Requeue.
	retire bool
	park   bool
}

// TaskInfo is a copy of a task's scheduling fields.
type TaskInfo struct {
	ID            ID
	Kind          Kind
	Status        Status
	Period        uint32
	LastTimestamp uint32
}

func (t *task) info() TaskInfo {
	return TaskInfo{ID: t.id, Kind: t.kind, Status: t.status, Period: t.period, LastTimestamp: t.last}
}
