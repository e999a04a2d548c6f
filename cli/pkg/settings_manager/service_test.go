package settings_manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

func TestDefaultsWithoutFile(t *testing.T) {
	m := NewSettingsManager(filepath.Join(t.TempDir(), "parley", "settings.json"), logging.NewNop())

	cfg := m.GetUserConfig()
	assert.Equal(t, AutoScrollSticky, cfg.AutoScroll)
	assert.Equal(t, "15:04", cfg.TimeLayout())
}

func TestSetUserConfigPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewSettingsManager(path, logging.NewNop())

	require.NoError(t, m.SetUserConfig(&UserConfig{AutoScroll: AutoScrollAlways, ClockFormat: Clock12h}))

	cfg := m.GetUserConfig()
	assert.Equal(t, AutoScrollAlways, cfg.AutoScroll)
	assert.Equal(t, "3:04 PM", cfg.TimeLayout())

	again := NewSettingsManager(path, logging.NewNop()).GetUserConfig()
	assert.Equal(t, cfg, again)
}

func TestMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	cfg := NewSettingsManager(path, logging.NewNop()).GetUserConfig()
	assert.Equal(t, DefaultUserConfig(), cfg)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clockFormat":"12h"}`), 0o600))

	cfg := NewSettingsManager(path, logging.NewNop()).GetUserConfig()
	assert.Equal(t, AutoScrollSticky, cfg.AutoScroll)
	assert.Equal(t, Clock12h, cfg.ClockFormat)
}
