package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("BARREPLAY_SYMBOLS", " aapl, msft ,,")
	t.Setenv("BARREPLAY_DATA_DIR", "/srv/bars")
	t.Setenv("BARREPLAY_INITIAL_CASH", "50000")
	t.Setenv("BARREPLAY_MC_RUNS", "20")
	t.Setenv("BARREPLAY_SEED", "7")
	t.Setenv("BARREPLAY_LOG_LEVEL", "debug")
	t.Setenv("BARREPLAY_DB_PATH", "")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Data.Symbols)
	assert.Equal(t, "/srv/bars", cfg.Data.Dir)
	assert.Equal(t, 50000.0, cfg.Account.InitialCash)
	assert.Equal(t, 20, cfg.Backtest.MonteCarloRuns)
	assert.Equal(t, int64(7), cfg.Backtest.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "./barreplay.db", cfg.Journal.DBPath, "empty values are ignored")
}

func TestApplyEnvBadNumber(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"cash", "BARREPLAY_INITIAL_CASH", "lots"},
		{"runs", "BARREPLAY_MC_RUNS", "1.5"},
		{"seed", "BARREPLAY_SEED", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := Default().ApplyEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFromFileAppliesEnv(t *testing.T) {
	t.Setenv("BARREPLAY_SYMBOLS", "IWM")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Default().SaveToFile(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"IWM"}, cfg.Data.Symbols)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "BARREPLAY_ENVFILE_CHECK"
	t.Cleanup(func() { os.Unsetenv(key) })

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=hello\n"), 0644))
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "hello", os.Getenv(key))
}
