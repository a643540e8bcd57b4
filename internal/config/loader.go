package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is used when no path is given
	DefaultConfigPath = "config/config.yaml"
	envPrefix         = "TAIXIU"
)

// Load reads and parses the configuration from file and environment variables.
// The file must exist. Placeholders of the form ${VAR_NAME} are expanded.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

// LoadWithDefaults is like Load but a missing file falls back to defaults
// and environment variables.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

func parse(data []byte) (*Config, error) {
	v := newViper()

	if len(data) > 0 {
		// Expand environment variables in the configuration (${VAR} syntax)
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unprefixed names kept for existing deployments
	_ = v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.api_key", envPrefix+"_SERVER_API_KEY", "API_KEY")

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tai-xiu-ai")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.tag", "tai-xiu-ai")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("source.name", "tele68")
	v.SetDefault("source.url", "https://wtxmd52.tele68.com/v1/txmd5/sessions")
	v.SetDefault("source.timeout_seconds", 12)
	v.SetDefault("source.max_retries", 2)
	v.SetDefault("source.retry_wait_min_ms", 200)
	v.SetDefault("source.retry_wait_max_ms", 2000)
	v.SetDefault("source.rate_limit", 5.0)
	v.SetDefault("source.circuit_breaker_max", 5)
	v.SetDefault("source.circuit_cooldown_seconds", 30)
	v.SetDefault("source.recent_totals_window", 20)

	v.SetDefault("history.backend", "file")
	v.SetDefault("history.path", "state.json")
	v.SetDefault("history.capacity", 20)
	v.SetDefault("history.key", "")
	v.SetDefault("history.ttl_seconds", 0)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 5)

	v.SetDefault("predictor.total_min", 3)
	v.SetDefault("predictor.total_max", 18)

	v.SetDefault("poller.enabled", false)
	v.SetDefault("poller.interval_seconds", 30)

	v.SetDefault("cache.ttl_seconds", 600)
	v.SetDefault("cache.max_size", 500)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("aws.secrets_enabled", false)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.secret_name", "taixiu/production")
}
