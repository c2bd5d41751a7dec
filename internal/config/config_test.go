package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "progno-*.toml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp config: %v", err)
	}
	return f.Name()
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mode = "arbitrage"
sports = ["nfl", "nba"]

[odds_api]
api_key = "file-key"
timeout = "45s"

[cache]
backend = "redis"
games_ttl = "2m"

[arbitrage]
min_profit = 1.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "arbitrage" {
		t.Errorf("mode = %q, want arbitrage", cfg.Mode)
	}
	if len(cfg.Sports) != 2 || cfg.Sports[0] != "nfl" {
		t.Errorf("sports = %v", cfg.Sports)
	}
	if cfg.OddsAPI.APIKey != "file-key" {
		t.Errorf("api key = %q", cfg.OddsAPI.APIKey)
	}
	if cfg.OddsAPI.Timeout.Duration != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.OddsAPI.Timeout.Duration)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.GamesTTL.Duration != 2*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Arbitrage.MinProfit != 1.5 {
		t.Errorf("min_profit = %g, want 1.5", cfg.Arbitrage.MinProfit)
	}

	// Untouched sections keep their defaults.
	if cfg.Arbitrage.Stake != 1000 {
		t.Errorf("stake = %g, want default 1000", cfg.Arbitrage.Stake)
	}
	if cfg.Cache.OddsTTL.Duration != 30*time.Second {
		t.Errorf("odds ttl = %v, want default 30s", cfg.Cache.OddsTTL.Duration)
	}
	if cfg.Calibration.MinSample != 10 {
		t.Errorf("min_sample = %d, want default 10", cfg.Calibration.MinSample)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
[odds_api]
api_key = "file-key"
`)

	t.Setenv("PROGNO_ODDS_API_KEY", "env-key")
	t.Setenv("PROGNO_MODE", "health")
	t.Setenv("PROGNO_SPORTS", "nfl, nhl")
	t.Setenv("PROGNO_CACHE_GAMES_TTL", "90s")
	t.Setenv("PROGNO_S3_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OddsAPI.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.OddsAPI.APIKey)
	}
	if cfg.Mode != "health" {
		t.Errorf("mode = %q, want health", cfg.Mode)
	}
	if len(cfg.Sports) != 2 || cfg.Sports[1] != "nhl" {
		t.Errorf("sports = %v, want [nfl nhl]", cfg.Sports)
	}
	if cfg.Cache.GamesTTL.Duration != 90*time.Second {
		t.Errorf("games ttl = %v, want 90s", cfg.Cache.GamesTTL.Duration)
	}
	if !cfg.S3.Enabled {
		t.Error("s3 enabled override not applied")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/progno.toml"); err == nil {
		t.Error("loaded a missing file without error")
	}
}

func TestValidateDefaultsWithKey(t *testing.T) {
	cfg := Defaults()
	cfg.OddsAPI.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults with api key should validate: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.OddsAPI.APIKey = ""
	cfg.Sports = []string{"cricket"}
	cfg.Cache.Backend = "memcached"
	cfg.Arbitrage.Stake = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid config validated")
	}
	msg := err.Error()
	for _, want := range []string{
		`unknown mode "bogus"`,
		"api_key must not be empty",
		`unknown sport "cricket"`,
		`unknown backend "memcached"`,
		"stake must be > 0",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidateBackendConditionals(t *testing.T) {
	cfg := Defaults()
	cfg.OddsAPI.APIKey = "k"
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addr = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "redis: addr") {
		t.Errorf("missing redis addr not flagged: %v", err)
	}

	cfg = Defaults()
	cfg.OddsAPI.APIKey = "k"
	cfg.Store.Backend = "postgres"
	cfg.Postgres.Host = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "postgres: host") {
		t.Errorf("missing postgres host not flagged: %v", err)
	}

	// A DSN stands in for the discrete connection fields.
	cfg.Postgres.DSN = "postgres://u:p@db:5432/progno"
	if err := cfg.Validate(); err != nil {
		t.Errorf("dsn-only postgres config rejected: %v", err)
	}
}

func TestValidateTelegramPairing(t *testing.T) {
	cfg := Defaults()
	cfg.OddsAPI.APIKey = "k"
	cfg.Notify.TelegramToken = "tok"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "telegram") {
		t.Errorf("unpaired telegram token not flagged: %v", err)
	}

	cfg.Notify.TelegramChatID = "123"
	if err := cfg.Validate(); err != nil {
		t.Errorf("paired telegram settings rejected: %v", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.OddsAPI.APIKey = "secret-key"
	cfg.Redis.Password = "hunter2"
	cfg.Postgres.Password = "pgpass"
	cfg.S3.SecretKey = "s3secret"
	cfg.Notify.TelegramToken = "tok"

	red := RedactedConfig(&cfg)
	for name, got := range map[string]string{
		"odds api key":      red.OddsAPI.APIKey,
		"redis password":    red.Redis.Password,
		"postgres password": red.Postgres.Password,
		"s3 secret":         red.S3.SecretKey,
		"telegram token":    red.Notify.TelegramToken,
	} {
		if got != "***" {
			t.Errorf("%s not redacted: %q", name, got)
		}
	}

	// Empty secrets stay empty instead of being replaced.
	if red.SportsBlaze.APIKey != "" {
		t.Errorf("empty key redacted to %q", red.SportsBlaze.APIKey)
	}

	// The original is untouched, and the copy's slices are independent.
	if cfg.OddsAPI.APIKey != "secret-key" {
		t.Error("redaction mutated the original")
	}
	red.Sports[0] = "changed"
	if cfg.Sports[0] == "changed" {
		t.Error("redacted copy shares the sports slice")
	}
}
