// Package config defines the top-level configuration for progno and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PROGNO_* environment
// variables.
type Config struct {
	OddsAPI     OddsAPIConfig     `toml:"odds_api"`
	SportsBlaze SportsBlazeConfig `toml:"sportsblaze"`
	Cache       CacheConfig       `toml:"cache"`
	Redis       RedisConfig       `toml:"redis"`
	Breaker     BreakerConfig     `toml:"breaker"`
	Arbitrage   ArbitrageConfig   `toml:"arbitrage"`
	Scoring     ScoringConfig     `toml:"scoring"`
	Calibration CalibrationConfig `toml:"calibration"`
	Store       StoreConfig       `toml:"store"`
	Postgres    PostgresConfig    `toml:"postgres"`
	S3          S3Config          `toml:"s3"`
	Notify      NotifyConfig      `toml:"notify"`
	Sports      []string          `toml:"sports"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// OddsAPIConfig holds credentials and tuning for the primary odds provider.
type OddsAPIConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Regions string   `toml:"regions"`
	Markets string   `toml:"markets"`
	Timeout duration `toml:"timeout"`
}

// SportsBlazeConfig holds credentials for the fallback schedule provider.
// An empty API key disables the fallback path.
type SportsBlazeConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
}

// CacheConfig selects the cache backend and its TTL policy.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend       string   `toml:"backend"`
	SweepInterval duration `toml:"sweep_interval"`
	GamesTTL      duration `toml:"games_ttl"`
	OddsTTL       duration `toml:"odds_ttl"`
	BoardsTTL     duration `toml:"boards_ttl"`
}

// RedisConfig holds Redis connection parameters, used when the cache
// backend is "redis".
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// BreakerSettings are the per-dependency circuit breaker knobs.
type BreakerSettings struct {
	FailureThreshold int      `toml:"failure_threshold"`
	SuccessThreshold int      `toml:"success_threshold"`
	Timeout          duration `toml:"timeout"`
	ResetTimeout     duration `toml:"reset_timeout"`
}

// BreakerConfig holds the default breaker settings plus per-dependency
// overrides keyed by breaker name ("odds_api", "sportsblaze").
type BreakerConfig struct {
	Defaults  BreakerSettings            `toml:"defaults"`
	Overrides map[string]BreakerSettings `toml:"overrides"`
}

// ArbitrageConfig holds the scanner thresholds.
type ArbitrageConfig struct {
	MinProfit            float64  `toml:"min_profit"`
	MaxAge               duration `toml:"max_age"`
	ProbabilityTolerance float64  `toml:"probability_tolerance"`
	OddsTolerance        float64  `toml:"odds_tolerance"`
	StaleThreshold       duration `toml:"stale_threshold"`
	MinConfidence        float64  `toml:"min_confidence"`
	Stake                float64  `toml:"stake"`
	MaxPriceMagnitude    float64  `toml:"max_price_magnitude"`
	MaxSpreadMagnitude   float64  `toml:"max_spread_magnitude"`
}

// ScoringConfig holds prediction parameters.
type ScoringConfig struct {
	Stake float64 `toml:"stake"`
}

// CalibrationConfig holds the feedback-loop parameters.
type CalibrationConfig struct {
	DampingFactor     float64  `toml:"damping_factor"`
	MaxConfidenceStep float64  `toml:"max_confidence_step"`
	SpreadGain        float64  `toml:"spread_gain"`
	MaxSpreadStep     float64  `toml:"max_spread_step"`
	TotalGain         float64  `toml:"total_gain"`
	MaxTotalStep      float64  `toml:"max_total_step"`
	RecentWindow      duration `toml:"recent_window"`
	MinSample         int      `toml:"min_sample"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "file" or "postgres".
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
}

// PostgresConfig holds PostgreSQL connection parameters, used when the
// store backend is "postgres".
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for mirroring run
// artifacts. Disabled unless Enabled is set.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		OddsAPI: OddsAPIConfig{
			BaseURL: "https://api.the-odds-api.com/v4",
			Regions: "us",
			Markets: "h2h,spreads,totals",
			Timeout: duration{15 * time.Second},
		},
		SportsBlaze: SportsBlazeConfig{
			BaseURL: "https://api.sportsblaze.com/v1",
			Timeout: duration{15 * time.Second},
		},
		Cache: CacheConfig{
			Backend:       "memory",
			SweepInterval: duration{5 * time.Minute},
			GamesTTL:      duration{60 * time.Second},
			OddsTTL:       duration{30 * time.Second},
			BoardsTTL:     duration{10 * time.Minute},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Breaker: BreakerConfig{
			Defaults: BreakerSettings{
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          duration{10 * time.Second},
				ResetTimeout:     duration{30 * time.Second},
			},
			Overrides: map[string]BreakerSettings{},
		},
		Arbitrage: ArbitrageConfig{
			MinProfit:            0.5,
			MaxAge:               duration{30 * time.Second},
			ProbabilityTolerance: 0.001,
			OddsTolerance:        0.5,
			StaleThreshold:       duration{60 * time.Second},
			MinConfidence:        0.98,
			Stake:                1000,
			MaxPriceMagnitude:    10000,
			MaxSpreadMagnitude:   30,
		},
		Scoring: ScoringConfig{
			Stake: 100,
		},
		Calibration: CalibrationConfig{
			DampingFactor:     0.25,
			MaxConfidenceStep: 0.01,
			SpreadGain:        0.5,
			MaxSpreadStep:     0.5,
			TotalGain:         0.5,
			MaxTotalStep:      1.5,
			RecentWindow:      duration{7 * 24 * time.Hour},
			MinSample:         10,
		},
		Store: StoreConfig{
			Backend: "file",
			DataDir: "data",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "progno",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "progno-data",
			UseSSL:         false,
			ForcePathStyle: true,
			RetentionDays:  90,
		},
		Notify: NotifyConfig{
			Events: []string{"arbitrage"},
		},
		Sports:   []string{"nfl", "nba", "nhl", "mlb", "cfb", "cbb"},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"arbitrage": true,
	"analyze":   true,
	"grade":     true,
	"calibrate": true,
	"health":    true,
	"full":      true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: arbitrage, analyze, grade, calibrate, health, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.OddsAPI.APIKey == "" {
		errs = append(errs, "odds_api: api_key must not be empty")
	}
	if c.OddsAPI.BaseURL == "" {
		errs = append(errs, "odds_api: base_url must not be empty")
	}

	if len(c.Sports) == 0 {
		errs = append(errs, "sports: at least one sport must be configured")
	}
	for _, s := range c.Sports {
		if _, ok := domain.ProviderSportKeys[domain.Sport(strings.ToLower(s))]; !ok {
			errs = append(errs, fmt.Sprintf("sports: unknown sport %q", s))
		}
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when cache backend is redis")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.DataDir == "" {
			errs = append(errs, "store: data_dir must not be empty when backend is file")
		}
	case "postgres":
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	default:
		errs = append(errs, fmt.Sprintf("store: unknown backend %q (valid: file, postgres)", c.Store.Backend))
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
		if c.S3.RetentionDays < 1 {
			errs = append(errs, "s3: retention_days must be >= 1")
		}
	}

	if c.Arbitrage.MinProfit < 0 {
		errs = append(errs, "arbitrage: min_profit must be >= 0")
	}
	if c.Arbitrage.Stake <= 0 {
		errs = append(errs, "arbitrage: stake must be > 0")
	}
	if c.Arbitrage.MinConfidence <= 0 || c.Arbitrage.MinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("arbitrage: min_confidence must be in (0, 1], got %g", c.Arbitrage.MinConfidence))
	}

	if c.Scoring.Stake <= 0 {
		errs = append(errs, "scoring: stake must be > 0")
	}

	if c.Calibration.MinSample < 1 {
		errs = append(errs, "calibration: min_sample must be >= 1")
	}
	if c.Calibration.DampingFactor <= 0 || c.Calibration.DampingFactor > 1 {
		errs = append(errs, fmt.Sprintf("calibration: damping_factor must be in (0, 1], got %g", c.Calibration.DampingFactor))
	}

	if c.Breaker.Defaults.FailureThreshold < 1 {
		errs = append(errs, "breaker: defaults.failure_threshold must be >= 1")
	}
	if c.Breaker.Defaults.SuccessThreshold < 1 {
		errs = append(errs, "breaker: defaults.success_threshold must be >= 1")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
