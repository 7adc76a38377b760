package host

import (
	"strings"

	"coopsched/internal/config"
	"coopsched/pkg/logx"
)

// apply brings the registry in line with cfg. Tasks are matched by name;
// removals run before additions so a freed slot can be reused.
func (h *Host) apply(cfg *config.Config) {
	changed, attrs := config.SummarizeConfigChange(h.cfg, cfg)
	if len(changed) == 0 {
		return
	}
	h.log.Info("applying config", append(attrs, logx.String("changed", strings.Join(changed, ",")))...)

	if h.logging != nil && h.cfg.Logging != cfg.Logging {
		h.logging.Apply(LoggingConfig(cfg.Logging))
	}
	if h.cfg.Host != cfg.Host {
		h.log.Warn("host settings change requires restart", logx.String("tick", cfg.Host.Tick), logx.Int("capacity", cfg.Host.Capacity))
	}

	d := config.DiffTasks(h.cfg.Tasks, cfg.Tasks)
	for _, t := range d.Removed {
		if e, ok := h.tasks[strings.TrimSpace(t.Name)]; ok {
			h.reg.Remove(e.handle)
		}
	}
	for _, c := range d.Changed {
		h.change(c)
	}
	for _, t := range d.Added {
		if err := h.create(t); err != nil {
			h.log.Warn("task not created", logx.String("task", t.Name), logx.Err(err))
		}
	}
	h.cfg = cfg
}

func (h *Host) change(c config.TaskChange) {
	name := strings.TrimSpace(c.New.Name)
	e, ok := h.tasks[name]
	if !ok {
		// Gone already (a single-shot that fired, or removed by an action).
		return
	}
	if c.Period {
		p, err := config.ParsePeriod(string(c.New.Period), h.unit)
		if err != nil {
			h.log.Warn("period not changed", logx.String("task", name), logx.Err(err))
		} else {
			h.reg.ChangePeriod(e.handle, p)
		}
	}
	if c.Action {
		act, err := h.newAction(name, c.New.Action)
		if err != nil {
			h.log.Warn("action not changed", logx.String("task", name), logx.Err(err))
		} else {
			// A nil function keeps runAction and swaps only the data.
			h.reg.ChangeCallback(e.handle, nil, act)
			e.act = act
		}
	}
	if c.Status {
		if c.New.Inactive {
			h.reg.Deactivate(e.handle)
		} else {
			h.reg.Activate(e.handle)
		}
	}
	e.cfg = c.New
}

// LoggingConfig maps the config file's logging section onto logx.
func LoggingConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}
