package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopsched/internal/config"
	"coopsched/internal/storage"
)

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      *config.StorageConfig
		want    storage.Config
		enabled bool
		wantErr bool
	}{
		{name: "absent"},
		{name: "none", in: &config.StorageConfig{Driver: "none"}},
		{name: "file", in: &config.StorageConfig{Driver: "File", Path: " j.jsonl ", Retain: 5}, want: storage.Config{Driver: "file", Path: "j.jsonl", Retain: 5}, enabled: true},
		{name: "sqlite default busy", in: &config.StorageConfig{Driver: "sqlite", Path: "x.db"}, want: storage.Config{Driver: "sqlite", Path: "x.db", BusyTimeout: time.Second}, enabled: true},
		{name: "sqlite busy", in: &config.StorageConfig{Driver: "sqlite3", Path: "x.db", BusyTimeout: "250ms"}, want: storage.Config{Driver: "sqlite3", Path: "x.db", BusyTimeout: 250 * time.Millisecond}, enabled: true},
		{name: "missing path", in: &config.StorageConfig{Driver: "sqlite"}, wantErr: true},
		{name: "unknown", in: &config.StorageConfig{Driver: "redis", Path: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, enabled, err := mapStorageConfig(&config.Config{Storage: tt.in})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, enabled)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppRunsConfiguredTasks(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.db")
	cfgPath := filepath.Join(dir, "coopsched.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
logging:
  level: error
host:
  tick: 1ms
storage:
  driver: sqlite
  path: `+db+`
tasks:
  - name: ping
    type: recurring
    period: 5ms
    action: {kind: log, message: ping, level: debug}
`), 0o600))

	a, err := NewApp(cfgPath)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.Error(t, a.Start(context.Background()))

	require.Eventually(t, func() bool {
		got, err := a.store.Recent(context.Background(), 3)
		return err == nil && len(got) == 3
	}, 5*time.Second, 10*time.Millisecond)

	v, err := a.status(context.Background())
	require.NoError(t, err)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"name":"ping"`)
	assert.Contains(t, string(b), `"name":"engine"`)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(stopCtx, StopSignal))
	<-a.Done()
	assert.NoError(t, a.Err())
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"tasks": [{"name": "x", "type": "recurring", "period": "soon", "action": {"kind": "log"}}]}`), 0o600))
	_, err := NewApp(cfgPath)
	require.Error(t, err)

	_, err = NewApp(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
