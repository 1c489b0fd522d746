package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CLEVER_PICKS"

// Default returns the built-in configuration. Every field LoadWithDefaults
// leaves unset falls back to these values.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "clever-picks",
			Environment: "development",
			LogLevel:    "info",
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               5432,
			Name:               "clever_picks",
			User:               "postgres",
			SSLMode:            "disable",
			MaxConnections:     10,
			MaxIdleConnections: 2,
		},
		Ledger: LedgerConfig{
			Store:      "sqlite",
			SQLitePath: "clever-picks.db",
			Tiers:      TiersConfig{High: 0.60, Medium: 0.55},
		},
		Engine: EngineConfig{
			Normalizer: NormalizerConfig{MaxQuoteAge: 6 * time.Hour},
			Sharp: SharpConfig{
				SharpBooks:          []string{"pinnacle", "bookmaker", "betonlineag", "lowvig", "bovada"},
				SquareBooks:         []string{"draftkings", "fanduel", "betmgm", "caesars", "espnbet", "betrivers", "wynnbet"},
				DivergenceThreshold: 0.5,
				RLMMinMove:          0.5,
				MinRLMBooks:         2,
				SteamBooks:          3,
				SteamThreshold:      0.5,
				SteamWindow:         30 * time.Minute,
				SignalCacheTTL:      5 * time.Minute,
				HistoryMaxPerSeries: 64,
			},
			Scoring: ScoringConfig{
				Weights: WeightsConfig{
					Pattern:     0.35,
					Analytics:   0.35,
					Situational: 0.20,
					Market:      0.10,
				},
				Baseline:            "fixed",
				ComponentCap:        0.05,
				EdgeEpsilon:         1e-6,
				PatternProvider:     "neutral",
				AnalyticsProvider:   "sharp_consensus",
				SituationalProvider: "situational",
				PublicFadeThreshold: 65,
				KeyNumbers:          []float64{3, 7, 10},
			},
			Stake: StakeConfig{
				KellyMultiplier: 0.25,
				MaxFraction:     0.05,
			},
			Parlay: ParlayConfig{
				MinLegs:             2,
				MaxLegs:             4,
				MaxPoolLegs:         12,
				MaxCandidates:       10,
				MinLegConfidence:    0,
				CorrelationDiscount: 0.9,
			},
			Markets: []string{"spread", "total", "moneyline"},
			Workers: 4,
		},
		ScoreFeed: ScoreFeedConfig{
			Timeout:    10 * time.Second,
			RateLimit:  2,
			MaxRetries: 3,
		},
		Scheduler: SchedulerConfig{
			GradingSweep: "*/15 * * * *",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// newViper builds a viper instance bound to the CLEVER_PICKS_ environment
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded reads the YAML file and expands ${VAR} placeholders before parsing
func readExpanded(v *viper.Viper, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// The file must exist; use LoadWithDefaults for optional files.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	if err := readExpanded(v, configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration layered over Default(). A missing file
// is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v, Default())

	if err := readExpanded(v, configPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every default so AutomaticEnv can override keys the file omits
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.environment", d.App.Environment)
	v.SetDefault("app.log_level", d.App.LogLevel)

	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_connections", d.Database.MaxConnections)
	v.SetDefault("database.max_idle_connections", d.Database.MaxIdleConnections)

	v.SetDefault("ledger.store", d.Ledger.Store)
	v.SetDefault("ledger.sqlite_path", d.Ledger.SQLitePath)
	v.SetDefault("ledger.tiers.high", d.Ledger.Tiers.High)
	v.SetDefault("ledger.tiers.medium", d.Ledger.Tiers.Medium)

	e := d.Engine
	v.SetDefault("engine.workers", e.Workers)
	v.SetDefault("engine.markets", e.Markets)
	v.SetDefault("engine.normalizer.max_quote_age", e.Normalizer.MaxQuoteAge)

	v.SetDefault("engine.sharp.sharp_books", e.Sharp.SharpBooks)
	v.SetDefault("engine.sharp.square_books", e.Sharp.SquareBooks)
	v.SetDefault("engine.sharp.divergence_threshold", e.Sharp.DivergenceThreshold)
	v.SetDefault("engine.sharp.rlm_min_move", e.Sharp.RLMMinMove)
	v.SetDefault("engine.sharp.min_rlm_books", e.Sharp.MinRLMBooks)
	v.SetDefault("engine.sharp.steam_books", e.Sharp.SteamBooks)
	v.SetDefault("engine.sharp.steam_threshold", e.Sharp.SteamThreshold)
	v.SetDefault("engine.sharp.steam_window", e.Sharp.SteamWindow)
	v.SetDefault("engine.sharp.signal_cache_ttl", e.Sharp.SignalCacheTTL)
	v.SetDefault("engine.sharp.history_max_per_series", e.Sharp.HistoryMaxPerSeries)

	v.SetDefault("engine.scoring.weights.pattern", e.Scoring.Weights.Pattern)
	v.SetDefault("engine.scoring.weights.analytics", e.Scoring.Weights.Analytics)
	v.SetDefault("engine.scoring.weights.situational", e.Scoring.Weights.Situational)
	v.SetDefault("engine.scoring.weights.market", e.Scoring.Weights.Market)
	v.SetDefault("engine.scoring.baseline", e.Scoring.Baseline)
	v.SetDefault("engine.scoring.component_cap", e.Scoring.ComponentCap)
	v.SetDefault("engine.scoring.edge_epsilon", e.Scoring.EdgeEpsilon)
	v.SetDefault("engine.scoring.pattern_provider", e.Scoring.PatternProvider)
	v.SetDefault("engine.scoring.analytics_provider", e.Scoring.AnalyticsProvider)
	v.SetDefault("engine.scoring.situational_provider", e.Scoring.SituationalProvider)
	v.SetDefault("engine.scoring.public_fade_threshold", e.Scoring.PublicFadeThreshold)
	v.SetDefault("engine.scoring.key_numbers", e.Scoring.KeyNumbers)

	v.SetDefault("engine.stake.kelly_multiplier", e.Stake.KellyMultiplier)
	v.SetDefault("engine.stake.max_fraction", e.Stake.MaxFraction)

	v.SetDefault("engine.parlay.min_legs", e.Parlay.MinLegs)
	v.SetDefault("engine.parlay.max_legs", e.Parlay.MaxLegs)
	v.SetDefault("engine.parlay.max_pool_legs", e.Parlay.MaxPoolLegs)
	v.SetDefault("engine.parlay.max_candidates", e.Parlay.MaxCandidates)
	v.SetDefault("engine.parlay.min_leg_confidence", e.Parlay.MinLegConfidence)
	v.SetDefault("engine.parlay.correlation_discount", e.Parlay.CorrelationDiscount)
	v.SetDefault("engine.parlay.allow_same_game", e.Parlay.AllowSameGame)

	v.SetDefault("score_feed.base_url", d.ScoreFeed.BaseURL)
	v.SetDefault("score_feed.api_key", d.ScoreFeed.APIKey)
	v.SetDefault("score_feed.timeout", d.ScoreFeed.Timeout)
	v.SetDefault("score_feed.rate_limit", d.ScoreFeed.RateLimit)
	v.SetDefault("score_feed.max_retries", d.ScoreFeed.MaxRetries)

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.grading_sweep", d.Scheduler.GradingSweep)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.port", d.Metrics.Port)
	v.SetDefault("metrics.path", d.Metrics.Path)
}
