package config

import (
	"reflect"
	"strings"

	"coopsched/pkg/logx"
)

// TaskChange pairs the old and new declaration of a task kept across a reload.
type TaskChange struct {
	Old, New TaskConfig

	Period bool
	Status bool
	Action bool
}

// TaskDiff is what a reload asks the host to do, in declaration order.
// A task whose type changed is reported as removed and added again.
type TaskDiff struct {
	Added   []TaskConfig
	Removed []TaskConfig
	Changed []TaskChange
}

func (d TaskDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func DiffTasks(oldTasks, newTasks []TaskConfig) TaskDiff {
	oldByName := make(map[string]TaskConfig, len(oldTasks))
	for _, t := range oldTasks {
		oldByName[t.key()] = t
	}
	newByName := make(map[string]bool, len(newTasks))

	var d TaskDiff
	for _, t := range newTasks {
		newByName[t.key()] = true
		prev, ok := oldByName[t.key()]
		if !ok {
			d.Added = append(d.Added, t)
			continue
		}
		if prev.Type != t.Type {
			d.Removed = append(d.Removed, prev)
			d.Added = append(d.Added, t)
			continue
		}
		c := TaskChange{
			Old:    prev,
			New:    t,
			Period: strings.TrimSpace(string(prev.Period)) != strings.TrimSpace(string(t.Period)),
			Status: prev.Inactive != t.Inactive,
			Action: !reflect.DeepEqual(prev.Action, t.Action),
		}
		if c.Period || c.Status || c.Action {
			d.Changed = append(d.Changed, c)
		}
	}
	for _, t := range oldTasks {
		if !newByName[t.key()] {
			d.Removed = append(d.Removed, t)
		}
	}
	return d
}

// SummarizeConfigChange returns the changed top-level sections and safe
// structured attrs for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 8)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if !reflect.DeepEqual(oldCfg.Host, newCfg.Host) {
		changed = append(changed, "host")
		attrs = append(attrs, logx.String("host.tick", newCfg.Host.Tick), logx.Int("host.capacity", newCfg.Host.Capacity))
	}
	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
	}
	if !reflect.DeepEqual(oldCfg.Debug, newCfg.Debug) {
		changed = append(changed, "debug")
		if newCfg.Debug != nil {
			attrs = append(attrs, logx.String("debug.addr", newCfg.Debug.Addr), logx.Bool("debug.token_set", newCfg.Debug.Token != ""))
		}
	}
	d := DiffTasks(oldCfg.Tasks, newCfg.Tasks)
	if !d.Empty() {
		changed = append(changed, "tasks")
		attrs = append(attrs,
			logx.Int("tasks.added", len(d.Added)),
			logx.Int("tasks.removed", len(d.Removed)),
			logx.Int("tasks.changed", len(d.Changed)),
		)
	}
	return changed, attrs
}
