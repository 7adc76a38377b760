package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"coopsched/pkg/logx"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS firings (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	at      TEXT    NOT NULL,
	tick    INTEGER NOT NULL,
	event   TEXT    NOT NULL,
	task_id INTEGER NOT NULL,
	name    TEXT,
	type    TEXT    NOT NULL,
	period  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS firings_task ON firings(task_id);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	retain     int
	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log, retain: cfg.Retain, pruneEvery: 500}
	if st.retain > 0 && uint64(st.retain) < st.pruneEvery {
		st.pruneEvery = uint64(st.retain)
	}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendFiring(ctx context.Context, f Firing) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if f.At.IsZero() {
		f.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO firings(at, tick, event, task_id, name, type, period) VALUES(?,?,?,?,?,?,?)`,
		f.At.UTC().Format(time.RFC3339Nano), int64(f.Tick), f.Event, int64(f.TaskID), nullStr(f.Name), f.Type, int64(f.Period),
	)
	if err == nil && s.retain > 0 && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		if perr := s.prune(pctx); perr != nil {
			s.log.Debug("journal prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]Firing, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, tick, event, task_id, name, type, period FROM
		   (SELECT * FROM firings ORDER BY seq DESC LIMIT ?)
		 ORDER BY seq ASC`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Firing
	for rows.Next() {
		var (
			at                   string
			tick, taskID, period int64
			name                 sql.NullString
			f                    Firing
		)
		if err := rows.Scan(&at, &tick, &f.Event, &taskID, &name, &f.Type, &period); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			f.At = ts
		}
		f.Tick = uint32(tick)
		f.TaskID = uint32(taskID)
		f.Period = uint32(period)
		f.Name = name.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// prune drops everything older than the newest s.retain rows.
func (s *sqliteStore) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM firings WHERE seq <= (SELECT COALESCE(MAX(seq), 0) FROM firings) - ?`, s.retain)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
