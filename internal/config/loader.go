package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PROGNO_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PROGNO_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Odds API ──
	setStr(&cfg.OddsAPI.BaseURL, "PROGNO_ODDS_API_BASE_URL")
	setStr(&cfg.OddsAPI.APIKey, "PROGNO_ODDS_API_KEY")
	setStr(&cfg.OddsAPI.Regions, "PROGNO_ODDS_API_REGIONS")
	setStr(&cfg.OddsAPI.Markets, "PROGNO_ODDS_API_MARKETS")
	setDuration(&cfg.OddsAPI.Timeout, "PROGNO_ODDS_API_TIMEOUT")

	// ── SportsBlaze ──
	setStr(&cfg.SportsBlaze.BaseURL, "PROGNO_SPORTSBLAZE_BASE_URL")
	setStr(&cfg.SportsBlaze.APIKey, "PROGNO_SPORTSBLAZE_API_KEY")
	setDuration(&cfg.SportsBlaze.Timeout, "PROGNO_SPORTSBLAZE_TIMEOUT")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "PROGNO_CACHE_BACKEND")
	setDuration(&cfg.Cache.SweepInterval, "PROGNO_CACHE_SWEEP_INTERVAL")
	setDuration(&cfg.Cache.GamesTTL, "PROGNO_CACHE_GAMES_TTL")
	setDuration(&cfg.Cache.OddsTTL, "PROGNO_CACHE_ODDS_TTL")
	setDuration(&cfg.Cache.BoardsTTL, "PROGNO_CACHE_BOARDS_TTL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PROGNO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PROGNO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PROGNO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PROGNO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PROGNO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PROGNO_REDIS_TLS_ENABLED")

	// ── Breaker ──
	setInt(&cfg.Breaker.Defaults.FailureThreshold, "PROGNO_BREAKER_FAILURE_THRESHOLD")
	setInt(&cfg.Breaker.Defaults.SuccessThreshold, "PROGNO_BREAKER_SUCCESS_THRESHOLD")
	setDuration(&cfg.Breaker.Defaults.Timeout, "PROGNO_BREAKER_TIMEOUT")
	setDuration(&cfg.Breaker.Defaults.ResetTimeout, "PROGNO_BREAKER_RESET_TIMEOUT")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.MinProfit, "PROGNO_ARBITRAGE_MIN_PROFIT")
	setDuration(&cfg.Arbitrage.MaxAge, "PROGNO_ARBITRAGE_MAX_AGE")
	setFloat64(&cfg.Arbitrage.ProbabilityTolerance, "PROGNO_ARBITRAGE_PROBABILITY_TOLERANCE")
	setFloat64(&cfg.Arbitrage.OddsTolerance, "PROGNO_ARBITRAGE_ODDS_TOLERANCE")
	setDuration(&cfg.Arbitrage.StaleThreshold, "PROGNO_ARBITRAGE_STALE_THRESHOLD")
	setFloat64(&cfg.Arbitrage.MinConfidence, "PROGNO_ARBITRAGE_MIN_CONFIDENCE")
	setFloat64(&cfg.Arbitrage.Stake, "PROGNO_ARBITRAGE_STAKE")

	// ── Scoring ──
	setFloat64(&cfg.Scoring.Stake, "PROGNO_SCORING_STAKE")

	// ── Calibration ──
	setFloat64(&cfg.Calibration.DampingFactor, "PROGNO_CALIBRATION_DAMPING_FACTOR")
	setInt(&cfg.Calibration.MinSample, "PROGNO_CALIBRATION_MIN_SAMPLE")
	setDuration(&cfg.Calibration.RecentWindow, "PROGNO_CALIBRATION_RECENT_WINDOW")

	// ── Store ──
	setStr(&cfg.Store.Backend, "PROGNO_STORE_BACKEND")
	setStr(&cfg.Store.DataDir, "PROGNO_STORE_DATA_DIR")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "PROGNO_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PROGNO_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PROGNO_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PROGNO_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PROGNO_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PROGNO_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PROGNO_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PROGNO_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PROGNO_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PROGNO_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PROGNO_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PROGNO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PROGNO_S3_REGION")
	setStr(&cfg.S3.Bucket, "PROGNO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PROGNO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PROGNO_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PROGNO_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PROGNO_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "PROGNO_S3_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PROGNO_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PROGNO_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PROGNO_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PROGNO_NOTIFY_EVENTS")

	// ── Top-level ──
	setStringSlice(&cfg.Sports, "PROGNO_SPORTS")
	setStr(&cfg.Mode, "PROGNO_MODE")
	setStr(&cfg.LogLevel, "PROGNO_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
