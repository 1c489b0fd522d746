package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/clever-picks/internal/models"
)

const weightSumTolerance = 1e-9

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("market", validateMarket)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration. Every failure wraps
// models.ErrInvalidConfig.
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", models.ErrInvalidConfig)
	}

	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("%w: validation failed: %v", models.ErrInvalidConfig, err)
	}

	if err := validateCrossField(cfg); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
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

// validateMarket validates a market type name
func validateMarket(fl validator.FieldLevel) bool {
	return models.MarketType(fl.Field().String()).Valid()
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if err := ValidateWeights(cfg.Engine.Scoring.Weights); err != nil {
		return err
	}

	if cfg.Ledger.Tiers.Medium >= cfg.Ledger.Tiers.High {
		return fmt.Errorf("ledger tiers: medium (%.2f) must be below high (%.2f)",
			cfg.Ledger.Tiers.Medium, cfg.Ledger.Tiers.High)
	}

	p := cfg.Engine.Parlay
	if p.MinLegs > p.MaxLegs {
		return fmt.Errorf("parlay min_legs (%d) cannot exceed max_legs (%d)", p.MinLegs, p.MaxLegs)
	}
	if p.MaxLegs > p.MaxPoolLegs {
		return fmt.Errorf("parlay max_legs (%d) cannot exceed max_pool_legs (%d)", p.MaxLegs, p.MaxPoolLegs)
	}

	if err := validateBookTiers(cfg.Engine.Sharp); err != nil {
		return err
	}

	switch cfg.Ledger.Store {
	case "sqlite":
		if cfg.Ledger.SQLitePath == "" {
			return fmt.Errorf("ledger store sqlite requires sqlite_path")
		}
	case "postgres":
		db := cfg.Database
		if db.Host == "" || db.Name == "" || db.User == "" || db.Port == 0 {
			return fmt.Errorf("ledger store postgres requires database host, port, name and user")
		}
		if db.MaxIdleConnections > db.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && db.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.Scheduler.Enabled {
		if _, err := cron.ParseStandard(cfg.Scheduler.GradingSweep); err != nil {
			return fmt.Errorf("invalid scheduler grading_sweep %q: %v", cfg.Scheduler.GradingSweep, err)
		}
		if cfg.ScoreFeed.BaseURL == "" {
			return fmt.Errorf("scheduler requires score_feed.base_url")
		}
	}

	return nil
}

// ValidateWeights checks that the component weights are non-negative and sum to 1
func ValidateWeights(w WeightsConfig) error {
	for name, val := range map[string]float64{
		"pattern":     w.Pattern,
		"analytics":   w.Analytics,
		"situational": w.Situational,
		"market":      w.Market,
	} {
		if val < 0 || math.IsNaN(val) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, val)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.6f", w.Sum())
	}
	return nil
}

// validateBookTiers rejects a book listed as both sharp and square
func validateBookTiers(s SharpConfig) error {
	sharp := make(map[string]bool, len(s.SharpBooks))
	for _, b := range s.SharpBooks {
		sharp[strings.ToLower(b)] = true
	}
	for _, b := range s.SquareBooks {
		if sharp[strings.ToLower(b)] {
			return fmt.Errorf("book %q cannot be both sharp and square", b)
		}
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
		case "market":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: spread, total, moneyline, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("%w: configuration validation failed:\n%s", models.ErrInvalidConfig, errMsg)
}
