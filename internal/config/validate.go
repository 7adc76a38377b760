package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"coopsched/pkg/namehash"
)

const (
	DefaultTick     = time.Millisecond
	DefaultCapacity = 16
)

// TickUnit returns the configured tick length.
func (h HostConfig) TickUnit() (time.Duration, error) {
	return ParseDurationOrDefault("host.tick", h.Tick, DefaultTick)
}

func (h HostConfig) EffectiveCapacity() int {
	if h.Capacity <= 0 {
		return DefaultCapacity
	}
	return h.Capacity
}

// Validate checks everything the host needs before building a registry from cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	unit, err := cfg.Host.TickUnit()
	if err != nil {
		return err
	}
	if cfg.Host.PollRate < 0 {
		return errors.New("host.poll_rate must be >= 0")
	}
	if _, ok := namehash.ByName(strings.ToLower(strings.TrimSpace(cfg.Host.Hash))); !ok {
		return fmt.Errorf("host.hash: unknown hash %q", cfg.Host.Hash)
	}
	if cfg.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
		if cfg.Storage.Retain < 0 {
			return errors.New("storage.retain must be >= 0")
		}
	}

	if d := cfg.Debug; d != nil && strings.TrimSpace(d.Addr) != "" {
		if _, _, err := net.SplitHostPort(d.Addr); err != nil {
			return fmt.Errorf("debug.addr: %w", err)
		}
	}

	var errs []error
	seen := map[string]bool{}
	for i, t := range cfg.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		name := t.key()
		if name == "" {
			errs = append(errs, fmt.Errorf("%s: name required", path))
			continue
		}
		path = fmt.Sprintf("tasks[%s]", name)
		if seen[name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name", path))
		}
		seen[name] = true

		switch t.Type {
		case TypeRecurring, TypeSingle:
		default:
			errs = append(errs, fmt.Errorf("%s: type must be %q or %q", path, TypeRecurring, TypeSingle))
		}
		if _, err := ParsePeriod(string(t.Period), unit); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		if err := validateAction(t.Action, unit); err != nil {
			errs = append(errs, fmt.Errorf("%s.action: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func validateAction(a ActionConfig, unit time.Duration) error {
	switch a.Kind {
	case ActionLog:
		return nil
	case ActionActivate, ActionDeactivate, ActionRemove:
		if strings.TrimSpace(a.Target) == "" {
			return fmt.Errorf("%s requires target", a.Kind)
		}
		return nil
	case ActionPeriod:
		if strings.TrimSpace(a.Target) == "" {
			return fmt.Errorf("%s requires target", a.Kind)
		}
		_, err := ParsePeriod(string(a.Period), unit)
		return err
	default:
		return fmt.Errorf("unknown kind %q", a.Kind)
	}
}
