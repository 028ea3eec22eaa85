package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Scraping.Headless)
	assert.Equal(t, 1500, cfg.Threads.RequestDelayMs)
	assert.Equal(t, 2, cfg.Threads.MaxRetries)
	assert.Equal(t, 10, cfg.Threads.RequestTimeoutSec)
	assert.Equal(t, 50, cfg.Threads.MaxThreadLength)
	assert.Equal(t, 4000, cfg.Articles.SettleDelayMs)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := os.UserConfigDir(); err != nil {
		t.Skip("no user config dir on this platform")
	}

	cfg := Default()
	cfg.Sync.Endpoint = "https://api.example.com/v1"
	cfg.Sync.IntervalHours = 12
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadOrDefaultWritesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := os.UserConfigDir(); err != nil {
		t.Skip("no user config dir on this platform")
	}

	cfg, err := LoadOrDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path, err := ConfigPath()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
