package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/config"
	"subtrack/internal/storage/memory"
)

func TestLoadConfig_Valid(t *testing.T) {
	t.Setenv(config.ConfigFileEnv, filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")

	cfg, logger, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("DATA_BACKEND", "cassandra")

	_, logger, err := LoadConfig()
	require.Error(t, err)
	assert.NotNil(t, logger, "a logger is available to report the failure")
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestInitStore_Memory(t *testing.T) {
	cfg := config.Defaults()
	res, err := InitStore(context.Background(), SetupLogger("error"), cfg)
	require.NoError(t, err)
	_, ok := res.Store.(*memory.Store)
	assert.True(t, ok)
}

func TestInitStore_SQLite(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "db", "subtrack.db")

	res, err := InitStore(context.Background(), SetupLogger("error"), cfg)
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	defer res.Cleanup()

	_, err = os.Stat(cfg.SQLiteDBPath)
	assert.NoError(t, err)
}

func TestSetupLogger_UnknownLevel(t *testing.T) {
	logger := SetupLogger("loud")
	assert.NotNil(t, logger)
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SignalContext(parent, SetupLogger("error"))
	defer stop()
	cancel()
	<-ctx.Done()
}

func TestClock_UsesConfiguredZone(t *testing.T) {
	cfg := config.Defaults()
	cfg.Timezone = "Europe/Istanbul"

	before := time.Now()
	now := Clock(cfg)()
	assert.Equal(t, "Europe/Istanbul", now.Location().String())
	assert.False(t, now.Before(before.Truncate(time.Second)))
}

func TestClock_FallsBackToUTC(t *testing.T) {
	cfg := config.Defaults()
	cfg.Timezone = "Nowhere/Special"
	assert.Equal(t, time.UTC, Clock(cfg)().Location())
}
