package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shataken-source/progno/internal/arbitrage"
	s3blob "github.com/shataken-source/progno/internal/blob/s3"
	"github.com/shataken-source/progno/internal/breaker"
	"github.com/shataken-source/progno/internal/cache/memory"
	rediscache "github.com/shataken-source/progno/internal/cache/redis"
	"github.com/shataken-source/progno/internal/calibration"
	"github.com/shataken-source/progno/internal/config"
	"github.com/shataken-source/progno/internal/domain"
	"github.com/shataken-source/progno/internal/gateway"
	"github.com/shataken-source/progno/internal/notify"
	"github.com/shataken-source/progno/internal/provider/oddsapi"
	"github.com/shataken-source/progno/internal/provider/sportsblaze"
	"github.com/shataken-source/progno/internal/scoring"
	"github.com/shataken-source/progno/internal/store/file"
	"github.com/shataken-source/progno/internal/store/postgres"
	"github.com/shataken-source/progno/internal/tracker"
)

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Cache      domain.OddsCache
	Breakers   *breaker.Registry
	Gateway    *gateway.Gateway
	Scanner    *arbitrage.Scanner
	Tracker    *tracker.Tracker
	Calibrator *calibration.Calibrator
	Model      domain.ScoreModel

	Opportunities domain.OpportunityStore
	Artifacts     *file.ArtifactWriter

	// S3 mirroring, nil unless enabled.
	Mirror *s3blob.Mirror
	Pruner *s3blob.Pruner

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// releases resources on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Cache ---
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Cache = rediscache.NewOddsCache(redisClient)
	default:
		memCache := memory.New(cfg.Cache.SweepInterval.Duration, logger)
		memCache.Start()
		closers = append(closers, memCache.Stop)
		deps.Cache = memCache
	}

	// --- Circuit breakers ---
	overrides := make(map[string]breaker.Settings, len(cfg.Breaker.Overrides))
	for name, s := range cfg.Breaker.Overrides {
		overrides[name] = breakerSettings(s)
	}
	deps.Breakers = breaker.NewRegistry(breakerSettings(cfg.Breaker.Defaults), overrides)

	// --- Providers ---
	primary, err := oddsapi.NewClient(oddsapi.Config{
		BaseURL: cfg.OddsAPI.BaseURL,
		APIKey:  cfg.OddsAPI.APIKey,
		Regions: cfg.OddsAPI.Regions,
		Markets: cfg.OddsAPI.Markets,
		Timeout: cfg.OddsAPI.Timeout.Duration,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: odds provider: %w", err)
	}

	// The fallback provider is optional: no key means no fallback path.
	var secondary *sportsblaze.Client
	if cfg.SportsBlaze.APIKey != "" {
		secondary, err = sportsblaze.NewClient(sportsblaze.Config{
			BaseURL: cfg.SportsBlaze.BaseURL,
			APIKey:  cfg.SportsBlaze.APIKey,
			Timeout: cfg.SportsBlaze.Timeout.Duration,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: schedule provider: %w", err)
		}
	}

	gwCfg := gateway.DefaultConfig()
	gwCfg.GamesTTL = cfg.Cache.GamesTTL.Duration
	gwCfg.OddsTTL = cfg.Cache.OddsTTL.Duration
	gwCfg.BoardsTTL = cfg.Cache.BoardsTTL.Duration
	deps.Gateway = gateway.New(primary, secondary, deps.Cache, deps.Breakers, gwCfg, logger)

	// --- Stores ---
	var (
		predictions  domain.PredictionStore
		calibrations domain.CalibrationStore
	)
	switch cfg.Store.Backend {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		predictions = postgres.NewPredictionStore(pool)
		calibrations = postgres.NewCalibrationStore(pool)
		deps.Opportunities = postgres.NewOpportunityStore(pool)
	default:
		predictions, err = file.NewPredictionStore(cfg.Store.DataDir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: prediction store: %w", err)
		}
		calibrations, err = file.NewCalibrationStore(cfg.Store.DataDir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: calibration store: %w", err)
		}
		deps.Opportunities, err = file.NewOpportunityStore(cfg.Store.DataDir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: opportunity store: %w", err)
		}
	}

	// Run artifacts always land on the local filesystem, whatever the
	// store backend.
	deps.Artifacts, err = file.NewArtifactWriter(cfg.Store.DataDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: artifact writer: %w", err)
	}

	// --- Pipeline services ---
	deps.Scanner = arbitrage.NewScanner(deps.Gateway, arbitrage.Config{
		MinProfit:            cfg.Arbitrage.MinProfit,
		MaxAge:               cfg.Arbitrage.MaxAge.Duration,
		ProbabilityTolerance: cfg.Arbitrage.ProbabilityTolerance,
		OddsTolerance:        cfg.Arbitrage.OddsTolerance,
		StaleThreshold:       cfg.Arbitrage.StaleThreshold.Duration,
		MinConfidenceForArb:  cfg.Arbitrage.MinConfidence,
		Stake:                cfg.Arbitrage.Stake,
		MaxPriceMagnitude:    cfg.Arbitrage.MaxPriceMagnitude,
		MaxSpreadMagnitude:   cfg.Arbitrage.MaxSpreadMagnitude,
	}, logger)

	deps.Tracker = tracker.New(ctx, predictions, logger)
	deps.Model = scoring.NewMarketModel(cfg.Scoring.Stake)
	deps.Calibrator = calibration.New(deps.Tracker, calibrations, calibration.Config{
		DampingFactor:     cfg.Calibration.DampingFactor,
		MaxConfidenceStep: cfg.Calibration.MaxConfidenceStep,
		SpreadGain:        cfg.Calibration.SpreadGain,
		MaxSpreadStep:     cfg.Calibration.MaxSpreadStep,
		TotalGain:         cfg.Calibration.TotalGain,
		MaxTotalStep:      cfg.Calibration.MaxTotalStep,
		RecentWindow:      cfg.Calibration.RecentWindow.Duration,
		MinSample:         cfg.Calibration.MinSample,
	}, logger)

	// --- S3 artifact mirror ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Mirror = s3blob.NewMirror(s3Client)
		deps.Pruner = s3blob.NewPruner(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

func breakerSettings(s config.BreakerSettings) breaker.Settings {
	return breaker.Settings{
		FailureThreshold: s.FailureThreshold,
		SuccessThreshold: s.SuccessThreshold,
		Timeout:          s.Timeout.Duration,
		ResetTimeout:     s.ResetTimeout.Duration,
	}
}
