package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file at Path
//   - "sqlite": SQLite database file at Path
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default

	// Retain keeps only the newest N records. Pruning is periodic, so the
	// journal may briefly hold more. 0 disables pruning.
	Retain int
}

// Firing is one journaled scheduler event.
// Keep it compact and schema-stable.
type Firing struct {
	At     time.Time `json:"at"`
	Tick   uint32    `json:"tick"`
	Event  string    `json:"event"`
	TaskID uint32    `json:"task_id"`
	Name   string    `json:"name,omitempty"`
	Type   string    `json:"type"`
	Period uint32    `json:"period"`
}
