package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempHome(t *testing.T) {
	t.Helper()
	orig := xdg.DataHome
	xdg.DataHome = t.TempDir()
	t.Cleanup(func() { xdg.DataHome = orig })
}

func TestLoadDefaults(t *testing.T) {
	useTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(xdg.DataHome, AppName, "crmdesk.db"), cfg.DBPath)
	assert.Equal(t, "strict", cfg.StagePolicy)
	assert.Equal(t, 100000.0, cfg.MonthlyTarget)
	assert.False(t, cfg.Latency)
}

func TestSaveAndLoad(t *testing.T) {
	useTempHome(t)

	cfg := Default()
	cfg.Backend = BackendMemory
	cfg.LogLevel = "debug"
	require.True(t, cfg.EnsureDeviceID())
	require.False(t, cfg.EnsureDeviceID())
	require.NoError(t, cfg.Save())

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	useTempHome(t)
	t.Setenv("CRMDESK_BACKEND", "MEMORY")
	t.Setenv("CRMDESK_LATENCY", "on")
	t.Setenv("CRMDESK_MONTHLY_TARGET", "25000")
	t.Setenv("CRMDESK_STAGE_POLICY", "permissive")
	t.Setenv("CRMDESK_FIXTURES", "/tmp/fixtures")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.True(t, cfg.Latency)
	assert.Equal(t, 25000.0, cfg.MonthlyTarget)
	assert.Equal(t, "permissive", cfg.StagePolicy)
	assert.Equal(t, "/tmp/fixtures", cfg.FixturesDir)
}

func TestCharmSettings(t *testing.T) {
	useTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Charm.Host)
	assert.True(t, cfg.Charm.AutoSync)

	cfg.Charm.AutoSync = false
	cfg.Charm.StaleThreshold = time.Minute
	require.NoError(t, cfg.Save())

	t.Setenv("CRMDESK_CHARM_HOST", "charm.example.com")
	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", loaded.Charm.Host)
	assert.False(t, loaded.Charm.AutoSync)
	assert.Equal(t, time.Minute, loaded.Charm.StaleThreshold)

	loaded.Charm.StaleThreshold = -time.Second
	assert.Error(t, loaded.Validate())
}

func TestInvalidConfig(t *testing.T) {
	useTempHome(t)

	t.Setenv("CRMDESK_MONTHLY_TARGET", "lots")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CRMDESK_MONTHLY_TARGET", "")
	t.Setenv("CRMDESK_BACKEND", "postgres")
	_, err = Load()
	assert.ErrorContains(t, err, "DSN")

	t.Setenv("CRMDESK_BACKEND", "floppy")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown backend")
}

func TestNewDeviceID(t *testing.T) {
	id := NewDeviceID()
	_, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewDeviceID())
}
