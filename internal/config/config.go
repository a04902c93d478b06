package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Backend API settings
	API APIConfig `koanf:"api"`

	// Playback engine settings
	Player PlayerConfig `koanf:"player"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	URL   string `koanf:"url"`   // e.g., "https://api.example.com"
	Token string `koanf:"token"` // bearer token for authenticated endpoints
}

// PlayerConfig holds playback engine tuning knobs.
type PlayerConfig struct {
	SkipSeconds             int     `koanf:"skip_seconds"`              // skip forward/backward offset (default: 15)
	PollIntervalMs          int     `koanf:"poll_interval_ms"`          // position poll period while playing (default: 250)
	AutosaveSeconds         int     `koanf:"autosave_seconds"`          // position autosave period while loaded (default: 5)
	RestoreThresholdSeconds int     `koanf:"restore_threshold_seconds"` // ignore saved positions below this (default: 1)
	Rate                    float64 `koanf:"rate"`                      // initial playback rate (0.5-3.0, default: 1.0)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize API URL (remove trailing slash)
	cfg.API.URL = strings.TrimSuffix(cfg.API.URL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/earshot/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "earshot", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasAPIConfig returns true if a backend is configured.
func (c *Config) HasAPIConfig() bool {
	return c.API.URL != ""
}

// GetPlayerConfig returns the player configuration with defaults applied.
func (c *Config) GetPlayerConfig() PlayerConfig {
	cfg := c.Player

	// Apply defaults
	if cfg.SkipSeconds <= 0 {
		cfg.SkipSeconds = 15
	}
	if cfg.PollIntervalMs < 100 || cfg.PollIntervalMs > 2000 {
		cfg.PollIntervalMs = 250
	}
	if cfg.AutosaveSeconds <= 0 {
		cfg.AutosaveSeconds = 5
	}
	if cfg.RestoreThresholdSeconds <= 0 {
		cfg.RestoreThresholdSeconds = 1
	}
	if cfg.Rate < 0.5 || cfg.Rate > 3.0 {
		cfg.Rate = 1.0
	}

	return cfg
}

// SkipOffset returns the skip offset as a duration.
func (c PlayerConfig) SkipOffset() time.Duration {
	return time.Duration(c.SkipSeconds) * time.Second
}

// PollInterval returns the poll period as a duration.
func (c PlayerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// AutosaveInterval returns the autosave period as a duration.
func (c PlayerConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveSeconds) * time.Second
}

// RestoreThreshold returns the restore threshold as a duration.
func (c PlayerConfig) RestoreThreshold() time.Duration {
	return time.Duration(c.RestoreThresholdSeconds) * time.Second
}
