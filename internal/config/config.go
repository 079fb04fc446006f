package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Auth       AuthConfig       `yaml:"auth" json:"auth"`
	Security   SecurityConfig   `yaml:"security" json:"security"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path           string `yaml:"path" json:"path"`
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`
}

// AuthConfig contains panel authentication settings
type AuthConfig struct {
	JWTSecret           string `yaml:"jwt_secret" json:"jwt_secret"`
	AccessTokenDuration string `yaml:"access_token_duration" json:"access_token_duration"`
	BcryptCost          int    `yaml:"bcrypt_cost" json:"bcrypt_cost"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	CORS CORSConfig `yaml:"cors" json:"cors"`
}

// CORSConfig contains CORS settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
}

// StorageConfig contains storage paths
type StorageConfig struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`
	InstancesDir  string `yaml:"instances_dir" json:"instances_dir"`
	DownloaderDir string `yaml:"downloader_dir" json:"downloader_dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// MetricsConfig contains metrics collection settings
type MetricsConfig struct {
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	SampleInterval  int    `yaml:"sample_interval" json:"sample_interval"` // seconds
	RetentionDays   int    `yaml:"retention_days" json:"retention_days"`
	CleanupSchedule string `yaml:"cleanup_schedule" json:"cleanup_schedule"` // cron spec
}

// SupervisorConfig contains process supervision tunables.
// Durations use Go duration syntax ("500ms", "10s").
type SupervisorConfig struct {
	ExitPollInterval string `yaml:"exit_poll_interval" json:"exit_poll_interval"`
	StopPollInterval string `yaml:"stop_poll_interval" json:"stop_poll_interval"`
	StopTimeout      string `yaml:"stop_timeout" json:"stop_timeout"`
}

// ParseDuration parses a configured duration, falling back when unset or invalid.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8420,
		},
		Database: DatabaseConfig{
			Path:           "./data/hypanel.db",
			MaxConnections: 25,
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("HYPANEL_JWT_SECRET", ""),
			AccessTokenDuration: "12h",
			BcryptCost:          12,
		},
		Security: SecurityConfig{
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:5173"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			},
		},
		Storage: StorageConfig{
			DataDir:       "./data",
			InstancesDir:  "./data/instances",
			DownloaderDir: "./data/hytale-downloader",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			SampleInterval:  15,
			RetentionDays:   2,
			CleanupSchedule: "0 3 * * *",
		},
		Supervisor: SupervisorConfig{
			ExitPollInterval: "500ms",
			StopPollInterval: "200ms",
			StopTimeout:      "10s",
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = resolveConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	if jwtSecret := os.Getenv("HYPANEL_JWT_SECRET"); jwtSecret != "" {
		cfg.Auth.JWTSecret = jwtSecret
	}

	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	cfg.normalizeStoragePaths(configPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("HYPANEL_JWT_SECRET must be set to a secure value")
	}

	if len(c.Auth.JWTSecret) > 1 && c.Auth.JWTSecret[0] == '$' && c.Auth.JWTSecret[1] == '{' {
		return fmt.Errorf("jwt_secret contains unexpanded environment variable")
	}

	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("bcrypt_cost must be between 10 and 14")
	}

	for name, value := range map[string]string{
		"exit_poll_interval": c.Supervisor.ExitPollInterval,
		"stop_poll_interval": c.Supervisor.StopPollInterval,
		"stop_timeout":       c.Supervisor.StopTimeout,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("supervisor %s must be a positive duration", name)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func resolveConfigPath() string {
	candidates := []string{"../configs/config.yaml", "./configs/config.yaml"}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "./configs/config.yaml"
}

func (c *Config) normalizeStoragePaths(configPath string) {
	baseDir := filepath.Dir(configPath)
	if !filepath.IsAbs(baseDir) {
		if absBase, err := filepath.Abs(baseDir); err == nil {
			baseDir = absBase
		}
	}

	rootDir := baseDir
	if filepath.Base(baseDir) == "configs" {
		rootDir = filepath.Dir(baseDir)
	}

	resolvePath := func(value string) string {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return ""
		}
		if filepath.IsAbs(trimmed) {
			return filepath.Clean(trimmed)
		}
		return filepath.Clean(filepath.Join(rootDir, trimmed))
	}

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = filepath.Join(rootDir, "data")
	}
	c.Storage.DataDir = resolvePath(c.Storage.DataDir)

	if strings.TrimSpace(c.Storage.InstancesDir) == "" {
		c.Storage.InstancesDir = filepath.Join(c.Storage.DataDir, "instances")
	}
	c.Storage.InstancesDir = resolvePath(c.Storage.InstancesDir)

	if strings.TrimSpace(c.Storage.DownloaderDir) == "" {
		c.Storage.DownloaderDir = filepath.Join(c.Storage.DataDir, "hytale-downloader")
	}
	c.Storage.DownloaderDir = resolvePath(c.Storage.DownloaderDir)
}
