// Package app provides the top-level application lifecycle for progno. It
// wires every dependency (providers, cache, breakers, stores, scanner,
// tracker, calibrator, notifications) once at process start and dispatches
// to the configured run mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shataken-source/progno/internal/config"
	"github.com/shataken-source/progno/internal/domain"
)

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, runs the configured mode once, and returns
// its error. These are scheduled batch runs, not long-lived servers; a nil
// return means every target sport succeeded.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting run",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "arbitrage":
		return a.ArbitrageMode(ctx, deps)
	case "analyze":
		return a.AnalyzeMode(ctx, deps)
	case "grade":
		return a.GradeMode(ctx, deps)
	case "calibrate":
		return a.CalibrateMode(ctx, deps)
	case "health":
		return a.HealthMode(ctx, deps)
	case "full":
		return a.FullMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. Safe to
// call multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// sports converts the configured sport names to domain sports.
func (a *App) sports() []domain.Sport {
	out := make([]domain.Sport, 0, len(a.cfg.Sports))
	for _, s := range a.cfg.Sports {
		out = append(out, domain.Sport(strings.ToLower(s)))
	}
	return out
}
