package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"coopsched/pkg/tick"
)

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

var descriptorParser = cron.NewParser(cron.Descriptor)

// ParsePeriod converts a period spec to ticks of the given unit.
//
// Supported forms:
//   - Ticks: "250"
//   - Go duration: "1.5s", "250ms"
//   - HH:MM: "01:30" (1 hour 30 minutes)
//   - Cron descriptor: "@every 5s" (second granularity, as robfig/cron rounds)
//
// Calendar cron expressions have no fixed period and are rejected.
func ParsePeriod(raw string, unit time.Duration) (uint32, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("period required")
	}

	if isDigits(s) {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil || n > tick.MaxPeriod {
			return 0, fmt.Errorf("period %q: ticks out of range", raw)
		}
		return uint32(n), nil
	}

	var d time.Duration
	switch {
	case strings.HasPrefix(s, "@"):
		sched, err := descriptorParser.Parse(s)
		if err != nil {
			return 0, fmt.Errorf("period %q: %w", raw, err)
		}
		every, ok := sched.(cron.ConstantDelaySchedule)
		if !ok {
			return 0, fmt.Errorf("period %q: only @every has a fixed period", raw)
		}
		d = every.Delay
	case reHHMM.MatchString(s):
		m := reHHMM.FindStringSubmatch(s)
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return 0, fmt.Errorf("period %q: invalid minutes", raw)
		}
		d = time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	default:
		var err error
		d, err = ParseDurationField("period", s)
		if err != nil {
			return 0, err
		}
	}

	n, ok := tick.FromDuration(d, unit)
	if !ok {
		return 0, fmt.Errorf("period %q: does not fit in ticks of %s", raw, unit)
	}
	return n, nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
