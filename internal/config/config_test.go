package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{"500ms", time.Second, 500 * time.Millisecond},
		{"10s", time.Second, 10 * time.Second},
		{"", time.Second, time.Second},
		{"  ", time.Second, time.Second},
		{"nonsense", time.Second, time.Second},
		{"-5s", time.Second, time.Second},
		{"0s", time.Second, time.Second},
	}

	for _, tc := range cases {
		if got := ParseDuration(tc.value, tc.fallback); got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func validConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			JWTSecret:           "a-long-enough-test-secret",
			AccessTokenDuration: "12h",
			BcryptCost:          12,
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := validConfig()
	cfg.Auth.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing jwt secret accepted")
	}

	cfg = validConfig()
	cfg.Auth.JWTSecret = "${HYPANEL_JWT_SECRET}"
	if err := cfg.Validate(); err == nil {
		t.Error("unexpanded env placeholder accepted")
	}

	cfg = validConfig()
	cfg.Auth.BcryptCost = 4
	if err := cfg.Validate(); err == nil {
		t.Error("bcrypt cost below range accepted")
	}

	cfg = validConfig()
	cfg.Supervisor.StopTimeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("invalid supervisor duration accepted")
	}

	cfg = validConfig()
	cfg.Supervisor.StopTimeout = "" // unset means default
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty supervisor duration rejected: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configsDir := filepath.Join(dir, "configs")
	if err := os.MkdirAll(configsDir, 0755); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(configsDir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
auth:
  access_token_duration: 2h
  bcrypt_cost: 10
supervisor:
  stop_timeout: 30s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_PATH", configPath)
	t.Setenv("HYPANEL_JWT_SECRET", "test-secret-from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "test-secret-from-env" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Supervisor.StopTimeout != "30s" {
		t.Errorf("stop_timeout = %q", cfg.Supervisor.StopTimeout)
	}
	// Unset values keep their defaults.
	if cfg.Supervisor.ExitPollInterval != "500ms" {
		t.Errorf("exit_poll_interval = %q", cfg.Supervisor.ExitPollInterval)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics default not applied")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HYPANEL_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load without jwt secret succeeded")
	}
}

func TestNormalizeStoragePaths(t *testing.T) {
	cfg := &Config{}
	cfg.normalizeStoragePaths("/srv/hypanel/configs/config.yaml")

	if cfg.Storage.DataDir != "/srv/hypanel/data" {
		t.Errorf("data_dir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.InstancesDir != "/srv/hypanel/data/instances" {
		t.Errorf("instances_dir = %q", cfg.Storage.InstancesDir)
	}
	if cfg.Storage.DownloaderDir != "/srv/hypanel/data/hytale-downloader" {
		t.Errorf("downloader_dir = %q", cfg.Storage.DownloaderDir)
	}

	abs := &Config{Storage: StorageConfig{DataDir: "/var/lib/hypanel"}}
	abs.normalizeStoragePaths("/srv/hypanel/configs/config.yaml")
	if abs.Storage.DataDir != "/var/lib/hypanel" {
		t.Errorf("absolute data_dir rewritten to %q", abs.Storage.DataDir)
	}
}
