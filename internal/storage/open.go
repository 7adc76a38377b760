package storage

import (
	"context"
	"errors"
	"strings"

	"coopsched/pkg/logx"
)

// Store is the firing journal used by the host.
type Store interface {
	AppendFiring(ctx context.Context, f Firing) error
	// Recent returns up to n of the newest firings, oldest first.
	Recent(ctx context.Context, n int) ([]Firing, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Retain < 0 {
		return nil, errors.New("storage retain must be >= 0")
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
