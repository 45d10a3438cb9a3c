package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the AdPulse application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled     bool
	Addr        string
	Password    string
	DB          int
	ExposureTTL time.Duration
}

type RateLimitConfig struct {
	Enabled     bool
	IngestRPS   float64
	IngestBurst int
	MgmtRPS     float64
	MgmtBurst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool
	Path      string
	Namespace string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("ADPULSE_HTTP_ADDR", ":8080"),
			Env:             getEnv("ADPULSE_ENV", "development"),
			ReadTimeout:     getDurationEnv("ADPULSE_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("ADPULSE_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("ADPULSE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("ADPULSE_DB_HOST", "localhost"),
			Port:     getIntEnv("ADPULSE_DB_PORT", 5432),
			User:     getEnv("ADPULSE_DB_USER", "adpulse"),
			Password: getEnv("ADPULSE_DB_PASSWORD", "adpulse_secret"),
			DBName:   getEnv("ADPULSE_DB_NAME", "adpulse"),
			SSLMode:  getEnv("ADPULSE_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("ADPULSE_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("ADPULSE_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:     getBoolEnv("ADPULSE_REDIS_ENABLED", false),
			Addr:        getEnv("ADPULSE_REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("ADPULSE_REDIS_PASSWORD", ""),
			DB:          getIntEnv("ADPULSE_REDIS_DB", 0),
			ExposureTTL: getDurationEnv("ADPULSE_REDIS_EXPOSURE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getBoolEnv("ADPULSE_RATE_LIMIT_ENABLED", true),
			IngestRPS:   getFloatEnv("ADPULSE_RATE_LIMIT_INGEST_RPS", 1000),
			IngestBurst: getIntEnv("ADPULSE_RATE_LIMIT_INGEST_BURST", 100),
			MgmtRPS:     getFloatEnv("ADPULSE_RATE_LIMIT_MGMT_RPS", 100),
			MgmtBurst:   getIntEnv("ADPULSE_RATE_LIMIT_MGMT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("ADPULSE_LOG_LEVEL", "info"),
			Format: getEnv("ADPULSE_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled:   getBoolEnv("ADPULSE_METRICS_ENABLED", true),
			Path:      getEnv("ADPULSE_METRICS_PATH", "/metrics"),
			Namespace: getEnv("ADPULSE_METRICS_NAMESPACE", "adpulse"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !strings.Contains(c.Server.Addr, ":") {
		return fmt.Errorf("ADPULSE_HTTP_ADDR must contain a port: %q", c.Server.Addr)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("ADPULSE_DB_PORT out of range: %d", c.Database.Port)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
