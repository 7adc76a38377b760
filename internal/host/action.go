package host

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"coopsched/internal/config"
	"coopsched/pkg/logx"
)

// action is the callback data of every configured task.
type action struct {
	task   string
	kind   string
	msg    string
	level  logx.Level
	target string
	period uint32
}

func (h *Host) newAction(task string, c config.ActionConfig) (*action, error) {
	a := &action{
		task:   task,
		kind:   c.Kind,
		msg:    c.Message,
		level:  logx.ParseLevel(c.Level, zerolog.InfoLevel),
		target: strings.TrimSpace(c.Target),
	}
	if a.msg == "" {
		a.msg = "task fired"
	}
	if c.Kind == config.ActionPeriod {
		p, err := config.ParsePeriod(string(c.Period), h.unit)
		if err != nil {
			return nil, fmt.Errorf("action period: %w", err)
		}
		a.period = p
	}
	return a, nil
}

// runAction is the scheduler callback shared by all configured tasks.
func (h *Host) runAction(data any) {
	a, ok := data.(*action)
	if !ok {
		return
	}
	now := h.reg.Now()
	if a.kind == config.ActionLog {
		h.log.Log(a.level, a.msg, logx.String("task", a.task), logx.Uint32("tick", now))
		return
	}

	t, ok := h.tasks[a.target]
	if !ok {
		h.log.Debug("action target not found", logx.String("task", a.task), logx.String("target", a.target), logx.String("action", a.kind))
		return
	}
	var applied bool
	switch a.kind {
	case config.ActionActivate:
		applied = h.reg.Activate(t.handle)
	case config.ActionDeactivate:
		applied = h.reg.Deactivate(t.handle)
	case config.ActionRemove:
		applied = h.reg.Remove(t.handle)
	case config.ActionPeriod:
		applied = h.reg.ChangePeriod(t.handle, a.period)
	}
	h.log.Debug("action applied",
		logx.String("task", a.task),
		logx.String("action", a.kind),
		logx.String("target", a.target),
		logx.Bool("changed", applied),
		logx.Uint32("tick", now),
	)
}
