// Package config provides configuration management for the prediction service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Source    SourceConfig    `mapstructure:"source"`
	History   HistoryConfig   `mapstructure:"history"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	AWS       AWSConfig       `mapstructure:"aws"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Tag         string `mapstructure:"tag" validate:"required"`
}

// ServerConfig represents the inbound HTTP listener
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	APIKey                 string `mapstructure:"api_key"`
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds" validate:"gt=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// SourceConfig represents the upstream session endpoint
type SourceConfig struct {
	Name                   string  `mapstructure:"name" validate:"required"`
	URL                    string  `mapstructure:"url" validate:"required,url"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxRetries             int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryWaitMinMillis     int     `mapstructure:"retry_wait_min_ms" validate:"gte=0"`
	RetryWaitMaxMillis     int     `mapstructure:"retry_wait_max_ms" validate:"gte=0"`
	RateLimit              float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerMax      int     `mapstructure:"circuit_breaker_max" validate:"gte=0"`
	CircuitCooldownSeconds int     `mapstructure:"circuit_cooldown_seconds" validate:"gte=0"`
	RecentTotalsWindow     int     `mapstructure:"recent_totals_window" validate:"gt=0"`
}

// HistoryConfig represents where the rolling history is persisted
type HistoryConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,backend"`
	Path       string `mapstructure:"path"`
	Capacity   int    `mapstructure:"capacity" validate:"gt=0,lte=1000"`
	Key        string `mapstructure:"key"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gte=0"`
}

// RedisConfig represents the redis history backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// PredictorConfig bounds the dice totals fed to the total bias estimator
type PredictorConfig struct {
	TotalMin float64 `mapstructure:"total_min"`
	TotalMax float64 `mapstructure:"total_max"`
}

// PollerConfig represents background polling of the upstream source
type PollerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"gte=0"`
}

// CacheConfig represents the issued report cache
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"gt=0"`
	MaxSize    int `mapstructure:"max_size" validate:"gt=0"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required,startswith=/"`
}

// AWSConfig represents the optional Secrets Manager overlay
type AWSConfig struct {
	SecretsEnabled bool   `mapstructure:"secrets_enabled"`
	Region         string `mapstructure:"region"`
	SecretName     string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// SourceTimeout returns the per-fetch deadline
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long issued reports stay retrievable
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// HistoryTTL returns the expiry of the redis history key, zero for none
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.History.TTLSeconds) * time.Second
}
