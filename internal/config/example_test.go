package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExampleConfigLoads(t *testing.T) {
	t.Parallel()
	cfg, err := NewConfigManager(filepath.Join("..", "..", "coopsched.example.yaml")).Load()
	require.NoError(t, err)
	require.Len(t, cfg.Tasks, 4)
}
