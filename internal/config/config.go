// Package config provides configuration management for the Clever Picks engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ledger    LedgerConfig    `mapstructure:"ledger" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	ScoreFeed ScoreFeedConfig `mapstructure:"score_feed"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents PostgreSQL connection configuration. Only
// required when the ledger store is postgres.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// LedgerConfig selects the bet ledger store
type LedgerConfig struct {
	Store      string      `mapstructure:"store" validate:"required,oneof=sqlite postgres"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	Tiers      TiersConfig `mapstructure:"tiers" validate:"required"`
}

// TiersConfig sets the confidence tier boundaries used in performance reports
type TiersConfig struct {
	High   float64 `mapstructure:"high" validate:"gt=0,lte=1"`
	Medium float64 `mapstructure:"medium" validate:"gt=0,lte=1"`
}

// EngineConfig groups the scoring pipeline settings
type EngineConfig struct {
	Normalizer NormalizerConfig `mapstructure:"normalizer" validate:"required"`
	Sharp      SharpConfig      `mapstructure:"sharp" validate:"required"`
	Scoring    ScoringConfig    `mapstructure:"scoring" validate:"required"`
	Stake      StakeConfig      `mapstructure:"stake" validate:"required"`
	Parlay     ParlayConfig     `mapstructure:"parlay" validate:"required"`
	Markets    []string         `mapstructure:"markets" validate:"required,min=1,dive,market"`
	Workers    int              `mapstructure:"workers" validate:"gt=0"`
}

// NormalizerConfig controls quote freshness
type NormalizerConfig struct {
	MaxQuoteAge time.Duration `mapstructure:"max_quote_age" validate:"gt=0"`
}

// SharpConfig controls the sharp/steam/RLM detectors
type SharpConfig struct {
	SharpBooks          []string      `mapstructure:"sharp_books" validate:"required,min=1,dive,required"`
	SquareBooks         []string      `mapstructure:"square_books" validate:"required,min=1,dive,required"`
	DivergenceThreshold float64       `mapstructure:"divergence_threshold" validate:"gt=0"`
	RLMMinMove          float64       `mapstructure:"rlm_min_move" validate:"gt=0"`
	MinRLMBooks         int           `mapstructure:"min_rlm_books" validate:"gt=0"`
	SteamBooks          int           `mapstructure:"steam_books" validate:"gt=0"`
	SteamThreshold      float64       `mapstructure:"steam_threshold" validate:"gt=0"`
	SteamWindow         time.Duration `mapstructure:"steam_window" validate:"gt=0"`
	SignalCacheTTL      time.Duration `mapstructure:"signal_cache_ttl" validate:"gte=0"`
	HistoryMaxPerSeries int           `mapstructure:"history_max_per_series" validate:"gt=0"`
}

// WeightsConfig holds the component weights. They must sum to 1.
type WeightsConfig struct {
	Pattern     float64 `mapstructure:"pattern" validate:"gte=0,lte=1"`
	Analytics   float64 `mapstructure:"analytics" validate:"gte=0,lte=1"`
	Situational float64 `mapstructure:"situational" validate:"gte=0,lte=1"`
	Market      float64 `mapstructure:"market" validate:"gte=0,lte=1"`
}

// Sum returns the total of all weights
func (w WeightsConfig) Sum() float64 {
	return w.Pattern + w.Analytics + w.Situational + w.Market
}

// ScoringConfig controls the confidence scorer
type ScoringConfig struct {
	Weights             WeightsConfig `mapstructure:"weights" validate:"required"`
	Baseline            string        `mapstructure:"baseline" validate:"required,oneof=fixed market"`
	ComponentCap        float64       `mapstructure:"component_cap" validate:"gt=0,lte=0.5"`
	EdgeEpsilon         float64       `mapstructure:"edge_epsilon" validate:"gte=0"`
	PatternProvider     string        `mapstructure:"pattern_provider" validate:"required"`
	AnalyticsProvider   string        `mapstructure:"analytics_provider" validate:"required"`
	SituationalProvider string        `mapstructure:"situational_provider" validate:"required"`
	PublicFadeThreshold float64       `mapstructure:"public_fade_threshold" validate:"gte=50,lte=100"`
	KeyNumbers          []float64     `mapstructure:"key_numbers"`
}

// StakeConfig controls fractional Kelly sizing
type StakeConfig struct {
	KellyMultiplier float64 `mapstructure:"kelly_multiplier" validate:"gt=0,lte=1"`
	MaxFraction     float64 `mapstructure:"max_fraction" validate:"gt=0,lte=1"`
}

// ParlayConfig controls parlay candidate generation
type ParlayConfig struct {
	MinLegs             int     `mapstructure:"min_legs" validate:"gte=2"`
	MaxLegs             int     `mapstructure:"max_legs" validate:"gte=2,lte=8"`
	MaxPoolLegs         int     `mapstructure:"max_pool_legs" validate:"gte=2,lte=20"`
	MaxCandidates       int     `mapstructure:"max_candidates" validate:"gt=0"`
	MinLegConfidence    float64 `mapstructure:"min_leg_confidence" validate:"gte=0,lte=1"`
	CorrelationDiscount float64 `mapstructure:"correlation_discount" validate:"gt=0,lte=1"`
	AllowSameGame       bool    `mapstructure:"allow_same_game"`
}

// ScoreFeedConfig configures the HTTP score/settlement feed
type ScoreFeedConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RateLimit  float64       `mapstructure:"rate_limit" validate:"gte=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
}

// SchedulerConfig configures background jobs
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	GradingSweep string `mapstructure:"grading_sweep"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesPostgres reports whether the ledger is backed by PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Ledger.Store == "postgres"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
