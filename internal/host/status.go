package host

import "context"

// Status is a named view of the registry for diagnostics.
type Status struct {
	Tick   uint32       `json:"tick"`
	Len    int          `json:"len"`
	Cap    int          `json:"cap"`
	Cursor string       `json:"cursor,omitempty"`
	Tasks  []TaskStatus `json:"tasks"`
}

type TaskStatus struct {
	Name          string `json:"name"`
	ID            uint32 `json:"id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Period        uint32 `json:"period"`
	LastTimestamp uint32 `json:"last"`
}

// Status asks the Run goroutine for a snapshot. It blocks until Run serves
// the request or ctx is done.
func (h *Host) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case h.status <- reply:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (h *Host) snapshot() Status {
	snap := h.reg.Snapshot()
	st := Status{Tick: snap.Tick, Len: snap.Len, Cap: snap.Cap, Tasks: make([]TaskStatus, 0, len(snap.Tasks))}
	if snap.HasCursor {
		st.Cursor = h.names[snap.Cursor]
	}
	for _, t := range snap.Tasks {
		st.Tasks = append(st.Tasks, TaskStatus{
			Name:          h.names[t.ID],
			ID:            uint32(t.ID),
			Kind:          t.Kind.String(),
			Status:        t.Status.String(),
			Period:        t.Period,
			LastTimestamp: t.LastTimestamp,
		})
	}
	return st
}

