// Package config loads the host configuration (YAML or JSON) and watches it
// for changes.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Config struct {
	Logging LoggingConfig  `json:"logging"`
	Host    HostConfig     `json:"host"`
	Storage *StorageConfig `json:"storage,omitempty"`
	Debug   *DebugConfig   `json:"debug,omitempty"`
	Tasks   []TaskConfig   `json:"tasks"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HostConfig controls how the host drives the engine.
//
// Defaults (when fields are omitted/zero):
//   - tick: "1ms"
//   - capacity: 16
//   - poll_rate: 0 (unpaced; the loop sleeps one tick when nothing is due)
//   - poll_burst: 1
//   - hash: "sdbm"
type HostConfig struct {
	// Tick is the wall-clock length of one scheduler tick (Go duration string).
	Tick     string `json:"tick,omitempty"`
	Capacity int    `json:"capacity,omitempty"`

	// PollRate caps engine passes per second. Each pass runs at most one task.
	PollRate  float64 `json:"poll_rate,omitempty"`
	PollBurst int     `json:"poll_burst,omitempty"`

	Hash string `json:"hash,omitempty"`
}

// StorageConfig controls the firing journal.
//
// Example:
//
//	storage: { driver: sqlite, path: ./coopsched.db }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)

	// Retain bounds the journal to the newest N firings; 0 keeps everything.
	Retain int `json:"retain,omitempty"`
}

// DebugConfig enables the diagnostics HTTP server (status JSON + pprof).
// Changes need a restart.
type DebugConfig struct {
	Addr          string `json:"addr"`
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}

const (
	TypeRecurring = "recurring"
	TypeSingle    = "single"
)

const (
	ActionLog        = "log"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionRemove     = "remove"
	ActionPeriod     = "period"
)

// TaskConfig declares one task. Name is the identity across reloads.
type TaskConfig struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Period   PeriodSpec   `json:"period"`
	Inactive bool         `json:"inactive,omitempty"`
	Action   ActionConfig `json:"action"`
}

// ActionConfig selects what a task's callback does.
//
//   - log: write Message at Level
//   - activate / deactivate / remove: act on the task named Target
//   - period: set Target's period to Period
type ActionConfig struct {
	Kind    string     `json:"kind"`
	Message string     `json:"message,omitempty"`
	Level   string     `json:"level,omitempty"`
	Target  string     `json:"target,omitempty"`
	Period  PeriodSpec `json:"period,omitempty"`
}

// PeriodSpec is a period as written in config. It accepts a bare number of
// ticks or a string (see ParsePeriod).
type PeriodSpec string

func (p *PeriodSpec) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PeriodSpec(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("period: want ticks or string, got %s", string(b))
	}
	*p = PeriodSpec(n.String())
	return nil
}

func (t TaskConfig) key() string { return strings.TrimSpace(t.Name) }
