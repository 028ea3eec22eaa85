// Package config loads and persists application configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Version  int            `toml:"version"`
	Scraping ScrapingConfig `toml:"scraping"`
	Threads  ThreadsConfig  `toml:"threads"`
	Articles ArticlesConfig `toml:"articles"`
	Sync     SyncConfig     `toml:"sync"`
}

type ScrapingConfig struct {
	Headless       bool `toml:"headless"`
	ExpandPacingMs int  `toml:"expand_pacing_ms"`
	SettleDelayMs  int  `toml:"settle_delay_ms"`
	WatchPollMs    int  `toml:"watch_poll_ms"`
}

type ThreadsConfig struct {
	RequestDelayMs    int `toml:"request_delay_ms"`
	MaxRetries        int `toml:"max_retries"`
	RequestTimeoutSec int `toml:"request_timeout_sec"`
	MaxThreadLength   int `toml:"max_thread_length"`
}

type ArticlesConfig struct {
	NavTimeoutSec int `toml:"nav_timeout_sec"`
	SettleDelayMs int `toml:"settle_delay_ms"`
}

type SyncConfig struct {
	Endpoint      string `toml:"endpoint"`
	APIToken      string `toml:"api_token"`
	IntervalHours int    `toml:"interval_hours"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: 1,
		Scraping: ScrapingConfig{
			Headless:       true,
			ExpandPacingMs: 300,
			SettleDelayMs:  1000,
			WatchPollMs:    2000,
		},
		Threads: ThreadsConfig{
			RequestDelayMs:    1500,
			MaxRetries:        2,
			RequestTimeoutSec: 10,
			MaxThreadLength:   50,
		},
		Articles: ArticlesConfig{
			NavTimeoutSec: 30,
			SettleDelayMs: 4000,
		},
		Sync: SyncConfig{
			IntervalHours: 6,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xmarks"), nil
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DBPath returns the full path to the bookmark database.
func DBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bookmarks.db"), nil
}

// Load reads config from disk.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault reads config from disk, writing and returning the
// defaults when no config file exists yet.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	cfg = Default()
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
