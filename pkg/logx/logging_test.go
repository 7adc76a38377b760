package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	require.True(t, l.IsZero())
	l.Info("dropped", String("k", "v"))
	assert.False(t, l.Enabled(LevelError))
}

func TestJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, "debug").With(String("component", "test"))
	l.Debug("hello", Uint32("tick", 7), Int32("elapsed", -3))

	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	assert.Equal(t, "hello", m["message"])
	assert.Equal(t, "test", m["component"])
	assert.EqualValues(t, 7, m["tick"])
	assert.EqualValues(t, -3, m["elapsed"])
	assert.True(t, strings.HasPrefix(m["caller"].(string), "logging_test.go:"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, "warn")
	l.Info("skip")
	assert.Zero(t, buf.Len())
	assert.True(t, l.Enabled(LevelError))
	assert.False(t, l.Enabled(LevelDebug))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel(" warning ", LevelInfo))
	assert.Equal(t, LevelInfo, ParseLevel("nope", LevelInfo))
}

func TestServiceFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	svc, l := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	l.Info("to-file", Int("n", 1))
	require.NoError(t, svc.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"to-file"`)
}
