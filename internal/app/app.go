// Package app wires the scheduler host to its config file, logging, journal
// storage and systemd.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"coopsched/internal/config"
	"coopsched/internal/eventbus"
	"coopsched/internal/host"
	"coopsched/internal/observability/debug"
	"coopsched/internal/runtime/supervisor"
	"coopsched/internal/storage"
	"coopsched/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	host  *host.Host

	journal *host.Journal
	debug   *debug.Server
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(host.LoggingConfig(cfg.Logging))
	appLog := log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	// Storage (optional)
	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		store = st
		appLog.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	h, err := host.New(cfg, host.Options{Log: log, Bus: bus, Logging: logSvc})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = logSvc.Close()
		return nil, err
	}

	a := &App{
		cfgm:  cfgm,
		log:   appLog,
		logs:  logSvc,
		bus:   bus,
		store: store,
		host:  h,
	}
	if dc := cfg.Debug; dc != nil && strings.TrimSpace(dc.Addr) != "" {
		a.debug = debug.New(debug.Config{Addr: dc.Addr, Token: dc.Token, AllowInsecure: dc.AllowInsecure}, a.status, log.With(logx.String("comp", "debug")))
	}
	if store != nil {
		// Subscribe before Start so the first firings are not missed.
		a.journal = host.NewJournal(bus, store, 256, log)
	}
	return a, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// status is served on the debug endpoint.
func (a *App) status(ctx context.Context) (any, error) {
	st, err := a.host.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := struct {
		Scheduler  host.Status         `json:"scheduler"`
		Supervisor supervisor.Snapshot `json:"supervisor"`
	}{Scheduler: st}
	if a.sup != nil {
		out.Supervisor = a.sup.Snapshot()
	}
	return out, nil
}

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// Reject reloads the app cannot apply before they are published.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		_, _, err := mapStorageConfig(cfg)
		return err
	})

	a.sup.Go("engine", a.host.Run)
	if a.journal != nil {
		a.sup.Go("journal", a.journal.Run)
	}

	// Lifecycle events at debug level, for tracing a schedule by hand.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("eventbus.log", func(c context.Context) error {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				a.log.Debug("event",
					logx.String("kind", e.Kind.String()),
					logx.String("task", e.Name),
					logx.Uint32("tick", e.Tick),
				)
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		return a.host.Follow(c, sub)
	})
	if a.debug != nil {
		a.sup.GoRestart("debug.http", a.debug.Serve, supervisor.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	}
	a.sup.GoRestart("config.watch", a.cfgm.Watch, supervisor.WithRestartBackoff(time.Second, 30*time.Second))

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}
	a.log.Info("app started", logx.String("config", a.cfgm.Path()))
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
		for _, g := range a.sup.Snapshot().Goroutines {
			if g.LastErr != "" || g.Panics > 0 {
				a.log.Warn("goroutine summary",
					logx.String("name", g.Name),
					logx.Uint64("restarts", g.Restarts),
					logx.Uint64("panics", g.Panics),
					logx.String("last_err", g.LastErr),
				)
			}
		}
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return err
}
