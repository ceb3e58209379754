// Package common provides shared utilities for Moneta
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Moneta
type Config struct {
	Environment  string             `toml:"environment"`
	Storage      StorageConfig      `toml:"storage"`
	Remote       RemoteConfig       `toml:"remote"`
	Sync         SyncConfig         `toml:"sync"`
	Connectivity ConnectivityConfig `toml:"connectivity"`
	Logging      LoggingConfig      `toml:"logging"`
}

// StorageConfig holds the local store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// RemoteConfig holds the remote ledger API client configuration.
type RemoteConfig struct {
	BaseURL   string `toml:"base_url"`
	Token     string `toml:"token"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the remote call timeout duration
func (c *RemoteConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SyncConfig holds cache freshness settings.
type SyncConfig struct {
	CacheTTL           string `toml:"cache_ttl"`
	StalenessThreshold string `toml:"staleness_threshold"`
}

// GetCacheTTL parses the cache TTL, defaulting to FreshnessCache.
func (c *SyncConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return FreshnessCache
	}
	return d
}

// GetStalenessThreshold parses the staleness threshold, defaulting to StalenessThreshold.
func (c *SyncConfig) GetStalenessThreshold() time.Duration {
	d, err := time.ParseDuration(c.StalenessThreshold)
	if err != nil {
		return StalenessThreshold
	}
	return d
}

// ConnectivityConfig holds liveness probe settings.
type ConnectivityConfig struct {
	ProbeTimeout string `toml:"probe_timeout"`
	PollInterval string `toml:"poll_interval"`
}

// GetProbeTimeout parses the probe timeout, defaulting to ProbeTimeout.
func (c *ConnectivityConfig) GetProbeTimeout() time.Duration {
	d, err := time.ParseDuration(c.ProbeTimeout)
	if err != nil {
		return ProbeTimeout
	}
	return d
}

// GetPollInterval parses the poll interval, defaulting to ProbeInterval.
func (c *ConnectivityConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return ProbeInterval
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Path: "data/moneta",
		},
		Remote: RemoteConfig{
			BaseURL:   "https://api.moneta.local",
			RateLimit: 5,
			Timeout:   "30s",
		},
		Sync: SyncConfig{
			CacheTTL:           "5m",
			StalenessThreshold: "10m",
		},
		Connectivity: ConnectivityConfig{
			ProbeTimeout: "5s",
			PollInterval: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MONETA_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("MONETA_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if level := os.Getenv("MONETA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("MONETA_REMOTE_URL"); url != "" {
		config.Remote.BaseURL = url
	}

	if token := os.Getenv("MONETA_REMOTE_TOKEN"); token != "" {
		config.Remote.Token = token
	}

	if rl := os.Getenv("MONETA_REMOTE_RATE_LIMIT"); rl != "" {
		if n, err := strconv.Atoi(rl); err == nil {
			config.Remote.RateLimit = n
		}
	}

	if t := os.Getenv("MONETA_REMOTE_TIMEOUT"); t != "" {
		config.Remote.Timeout = t
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
