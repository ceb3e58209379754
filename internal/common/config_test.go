package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Environment != "development" {
		t.Errorf("environment = %q", config.Environment)
	}
	if config.Sync.GetCacheTTL() != FreshnessCache {
		t.Errorf("cache TTL = %v, want %v", config.Sync.GetCacheTTL(), FreshnessCache)
	}
	if config.Sync.GetStalenessThreshold() != StalenessThreshold {
		t.Errorf("staleness = %v, want %v", config.Sync.GetStalenessThreshold(), StalenessThreshold)
	}
	if config.Connectivity.GetProbeTimeout() != ProbeTimeout {
		t.Errorf("probe timeout = %v, want %v", config.Connectivity.GetProbeTimeout(), ProbeTimeout)
	}
	if config.Connectivity.GetPollInterval() != ProbeInterval {
		t.Errorf("poll interval = %v, want %v", config.Connectivity.GetPollInterval(), ProbeInterval)
	}
	if config.Remote.GetTimeout() != 30*time.Second {
		t.Errorf("remote timeout = %v", config.Remote.GetTimeout())
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moneta.toml")
	content := `
environment = "production"

[storage]
path = "/var/lib/moneta"

[remote]
base_url = "https://ledger.example.com"
rate_limit = 10

[sync]
cache_ttl = "2m"

[connectivity]
probe_timeout = "1s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !config.IsProduction() {
		t.Error("expected production environment")
	}
	if config.Storage.Path != "/var/lib/moneta" {
		t.Errorf("storage path = %q", config.Storage.Path)
	}
	if config.Remote.BaseURL != "https://ledger.example.com" {
		t.Errorf("base url = %q", config.Remote.BaseURL)
	}
	if config.Remote.RateLimit != 10 {
		t.Errorf("rate limit = %d", config.Remote.RateLimit)
	}
	if config.Sync.GetCacheTTL() != 2*time.Minute {
		t.Errorf("cache TTL = %v", config.Sync.GetCacheTTL())
	}
	if config.Connectivity.GetProbeTimeout() != time.Second {
		t.Errorf("probe timeout = %v", config.Connectivity.GetProbeTimeout())
	}
	// Untouched sections keep their defaults
	if config.Logging.Level != "info" {
		t.Errorf("log level = %q", config.Logging.Level)
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing files should be skipped: %v", err)
	}
	if config.Environment != "development" {
		t.Errorf("environment = %q", config.Environment)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MONETA_ENV", "production")
	t.Setenv("MONETA_DATA_PATH", "/tmp/moneta-data")
	t.Setenv("MONETA_REMOTE_URL", "https://override.example.com")
	t.Setenv("MONETA_REMOTE_TOKEN", "env-token")
	t.Setenv("MONETA_REMOTE_RATE_LIMIT", "20")
	t.Setenv("MONETA_LOG_LEVEL", "debug")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Environment != "production" {
		t.Errorf("environment = %q", config.Environment)
	}
	if config.Storage.Path != "/tmp/moneta-data" {
		t.Errorf("storage path = %q", config.Storage.Path)
	}
	if config.Remote.BaseURL != "https://override.example.com" {
		t.Errorf("base url = %q", config.Remote.BaseURL)
	}
	if config.Remote.Token != "env-token" {
		t.Errorf("token = %q", config.Remote.Token)
	}
	if config.Remote.RateLimit != 20 {
		t.Errorf("rate limit = %d", config.Remote.RateLimit)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("log level = %q", config.Logging.Level)
	}
}

func TestDurationParsers_FallBackOnGarbage(t *testing.T) {
	sync := SyncConfig{CacheTTL: "not-a-duration"}
	if sync.GetCacheTTL() != FreshnessCache {
		t.Errorf("garbage TTL should fall back, got %v", sync.GetCacheTTL())
	}
	remote := RemoteConfig{Timeout: ""}
	if remote.GetTimeout() != 30*time.Second {
		t.Errorf("empty timeout should fall back, got %v", remote.GetTimeout())
	}
}
