package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// History backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for an empty tag or a nil func
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("backend", validateBackend)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateBackend validates the history backend field
func validateBackend(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Predictor.TotalMin >= cfg.Predictor.TotalMax {
		return fmt.Errorf("predictor.total_min (%v) must be less than predictor.total_max (%v)",
			cfg.Predictor.TotalMin, cfg.Predictor.TotalMax)
	}

	if cfg.Source.RetryWaitMinMillis > cfg.Source.RetryWaitMaxMillis {
		return fmt.Errorf("source.retry_wait_min_ms must not exceed source.retry_wait_max_ms")
	}

	switch cfg.History.Backend {
	case BackendFile:
		if strings.TrimSpace(cfg.History.Path) == "" {
			return fmt.Errorf("history.path is required for the file backend")
		}
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		var missing []string
		if cfg.Database.Host == "" {
			missing = append(missing, "database.host")
		}
		if cfg.Database.Name == "" {
			missing = append(missing, "database.name")
		}
		if cfg.Database.User == "" {
			missing = append(missing, "database.user")
		}
		if len(missing) > 0 {
			return fmt.Errorf("postgres backend requires %s", strings.Join(missing, ", "))
		}
	}

	if cfg.AWS.SecretsEnabled && (cfg.AWS.Region == "" || cfg.AWS.SecretName == "") {
		return fmt.Errorf("aws.region and aws.secret_name are required when aws.secrets_enabled is set")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "backend":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: memory, file, redis, postgres\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.History.Backend == BackendMemory {
			return fmt.Errorf("production environment requires a durable history backend")
		}
		if cfg.History.Backend == BackendPostgres && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
	}

	return nil
}
