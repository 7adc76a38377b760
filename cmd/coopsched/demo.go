package main

import (
	"fmt"
	"io"

	"coopsched/pkg/logx"
	"coopsched/pkg/scheduler"
	"coopsched/pkg/tick"
)

// runDemo replays the reference run on a manual clock: A (single, 5),
// B (recurring, 7), C (single, 2) and D (recurring, 10) are created at tick 0,
// then B is paused, resumed and sped up, D removed and E added. Each firing is
// printed as "<tick> <task>".
func runDemo(w io.Writer, log logx.Logger) error {
	pool, err := scheduler.NewPool(4)
	if err != nil {
		return err
	}
	clk := tick.NewManual(0)
	reg, err := scheduler.New(clk.Source(), pool, scheduler.WithLogger(log))
	if err != nil {
		return err
	}

	var werr error
	emit := func(data any) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, "%d %s\n", clk.Now(), data)
		}
	}
	runUntil := func(end uint32) {
		for now := clk.Now(); now != end; now++ {
			clk.Set(now)
			reg.Drain(0)
		}
		clk.Set(end)
	}
	phase := func(title string) {
		if werr == nil {
			_, werr = fmt.Fprintf(w, "# %d: %s\n", clk.Now(), title)
		}
	}

	handles := map[string]scheduler.Handle{}
	for _, t := range []struct {
		name   string
		single bool
		period uint32
	}{{"A", true, 5}, {"B", false, 7}, {"C", true, 2}, {"D", false, 10}} {
		var h scheduler.Handle
		if t.single {
			h, err = reg.CreateSingleShotNamed(t.name, emit, t.name, t.period)
		} else {
			h, err = reg.CreateRecurringNamed(t.name, emit, t.name, t.period)
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
		handles[t.name] = h
	}

	phase("start")
	runUntil(31)
	phase("deactivate B")
	reg.ChangeStatus(handles["B"], scheduler.Inactive)
	runUntil(51)
	phase("activate B")
	reg.ChangeStatus(handles["B"], scheduler.Active)
	runUntil(61)
	phase("B period 3")
	reg.ChangePeriod(handles["B"], 3)
	runUntil(71)
	phase("remove D")
	if d, ok := reg.FindByName("D"); ok {
		reg.Remove(d)
	}
	runUntil(81)
	phase("add E, swap its callback")
	e, err := reg.CreateRecurringNamed("E", func(any) {}, nil, 1)
	if err != nil {
		return fmt.Errorf("create E: %w", err)
	}
	reg.ChangeCallback(e, emit, "E")
	runUntil(86)
	return werr
}
