package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shataken-source/progno/internal/breaker"
	"github.com/shataken-source/progno/internal/domain"
)

// BreakerScoring guards the scoring model the same way provider calls are
// guarded; a wedged model fails fast instead of stalling the whole run.
const BreakerScoring = "scoring"

// runArtifact is the per-sport analysis output written to
// <data_dir>/runs and optionally mirrored to S3.
type runArtifact struct {
	Sport       domain.Sport            `json:"sport"`
	GeneratedAt time.Time               `json:"generated_at"`
	Calibration domain.CalibrationState `json:"calibration"`
	Games       int                     `json:"games"`
	Predictions []domain.Prediction     `json:"predictions"`
}

// sportFailures aggregates per-sport errors; any failure makes the run
// exit nonzero while the remaining sports still complete.
type sportFailures struct {
	mu     sync.Mutex
	failed []string
}

func (f *sportFailures) add(sport domain.Sport, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, fmt.Sprintf("%s: %v", sport, err))
}

func (f *sportFailures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failed) == 0 {
		return nil
	}
	return fmt.Errorf("app: %d sport(s) failed: %s", len(f.failed), strings.Join(f.failed, "; "))
}

// ArbitrageMode scans every configured sport once, records and announces
// any opportunities, and prints them to stdout.
func (a *App) ArbitrageMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting arbitrage scan")

	opps, err := deps.Scanner.Scan(ctx, a.sports())
	if err != nil {
		return fmt.Errorf("app: arbitrage scan: %w", err)
	}

	for _, opp := range opps {
		if err := deps.Opportunities.Insert(ctx, opp); err != nil {
			a.logger.Warn("recording opportunity failed",
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := deps.Notifier.NotifyOpportunities(ctx, opps); err != nil {
		a.logger.Warn("opportunity notification failed", slog.String("error", err.Error()))
	}

	if deps.Mirror != nil && len(opps) > 0 {
		if _, err := deps.Mirror.ArchiveOpportunities(ctx, opps, time.Now()); err != nil {
			a.logger.Warn("opportunity archive upload failed", slog.String("error", err.Error()))
		}
	}

	a.logger.InfoContext(ctx, "arbitrage scan complete", slog.Int("opportunities", len(opps)))
	return printJSON(opps)
}

// AnalyzeMode produces one prediction per upcoming game per sport, guarded
// so a game never carries two pending predictions, and writes per-sport run
// artifacts. The calibration state is read once and applied to every pick
// in the run.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	cal := deps.Calibrator.Current(ctx)
	today := time.Now().UTC().Format("2006-01-02")
	now := time.Now()

	a.logger.InfoContext(ctx, "starting analysis",
		slog.String("date", today),
		slog.Float64("confidence_bias", cal.ConfidenceBias),
		slog.Float64("spread_bias", cal.SpreadBias),
		slog.Float64("total_bias", cal.TotalBias),
	)

	var failures sportFailures
	g, gctx := errgroup.WithContext(ctx)
	for _, sport := range a.sports() {
		sport := sport
		g.Go(func() error {
			if err := a.analyzeSport(gctx, deps, sport, today, cal, now); err != nil {
				failures.add(sport, err)
				a.logger.Warn("sport analysis failed",
					slog.String("sport", string(sport)),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: analyze: %w", err)
	}

	if deps.Pruner != nil {
		cutoff := now.AddDate(0, 0, -a.cfg.S3.RetentionDays)
		if n, err := deps.Pruner.PruneRuns(ctx, cutoff); err != nil {
			a.logger.Warn("run pruning failed", slog.String("error", err.Error()))
		} else if n > 0 {
			a.logger.Info("pruned mirrored runs", slog.Int("count", n))
		}
	}

	return failures.err()
}

func (a *App) analyzeSport(ctx context.Context, deps *Dependencies, sport domain.Sport, date string, cal domain.CalibrationState, at time.Time) error {
	games, err := deps.Gateway.GetGames(ctx, sport, date)
	if err != nil {
		return err
	}

	artifact := runArtifact{
		Sport:       sport,
		GeneratedAt: at,
		Calibration: cal,
		Games:       len(games),
	}

	for _, game := range games {
		if game.Completed {
			continue
		}
		if deps.Tracker.HasPendingPredictionForGameID(game.ID) {
			continue
		}

		pred, err := breaker.Do(ctx, deps.Breakers.Get(BreakerScoring), func(ctx context.Context) (domain.Prediction, error) {
			return deps.Model.Predict(ctx, game, cal)
		})
		if err != nil {
			a.logger.Warn("prediction failed",
				slog.String("game_id", game.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		stored, err := deps.Tracker.AddPrediction(ctx, pred)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			return err
		}
		artifact.Predictions = append(artifact.Predictions, stored)
	}

	path, err := deps.Artifacts.WriteRun(sport, at, artifact)
	if err != nil {
		return err
	}
	a.logger.Info("analysis artifact written",
		slog.String("sport", string(sport)),
		slog.String("path", path),
		slog.Int("games", artifact.Games),
		slog.Int("predictions", len(artifact.Predictions)),
	)

	if deps.Mirror != nil {
		if err := deps.Mirror.MirrorRun(ctx, sport, at, artifact); err != nil {
			a.logger.Warn("artifact mirror failed",
				slog.String("sport", string(sport)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// GradeMode fetches completed scores per sport and batch-grades pending
// predictions. Replays are harmless: an already graded prediction is never
// graded twice.
func (a *App) GradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting grading")

	var failures sportFailures
	var mu sync.Mutex
	updated := 0

	g, gctx := errgroup.WithContext(ctx)
	for _, sport := range a.sports() {
		sport := sport
		g.Go(func() error {
			games, err := deps.Gateway.GetScores(gctx, sport)
			if err != nil {
				failures.add(sport, err)
				a.logger.Warn("score fetch failed",
					slog.String("sport", string(sport)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			n := deps.Tracker.UpdatePredictionsFromLiveGames(gctx, games)
			mu.Lock()
			updated += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("app: grade: %w", err)
	}

	metrics := deps.Tracker.GetAccuracyMetrics()
	a.logger.InfoContext(ctx, "grading complete",
		slog.Int("updated", updated),
		slog.Int("graded_total", metrics.Overall.Predictions),
		slog.Int("pending", metrics.Pending),
		slog.Float64("win_rate", metrics.Overall.WinRate),
		slog.Float64("roi", metrics.Overall.ROI),
	)
	return failures.err()
}

// CalibrateMode recomputes the calibration state from accumulated grading
// results and persists it for the next analysis cycle.
func (a *App) CalibrateMode(ctx context.Context, deps *Dependencies) error {
	state, err := deps.Calibrator.Update(ctx)
	if err != nil {
		return fmt.Errorf("app: calibrate: %w", err)
	}
	return printJSON(state)
}

// HealthMode probes the primary provider and reports provider health plus
// breaker state as JSON. A down provider makes the run exit nonzero so
// schedulers can alert on it.
func (a *App) HealthMode(ctx context.Context, deps *Dependencies) error {
	health := deps.Gateway.CheckHealth(ctx)

	report := struct {
		Provider domain.ProviderHealth `json:"provider"`
		Breakers []breaker.Snapshot    `json:"breakers"`
	}{
		Provider: health,
		Breakers: deps.Gateway.Breakers(),
	}
	if err := printJSON(report); err != nil {
		return err
	}

	if health.Status == domain.HealthDown {
		return fmt.Errorf("app: provider %s is down: %s", health.Name, health.Err)
	}
	return nil
}

// FullMode runs the complete pipeline: analyze, grade, then an arbitrage
// scan. Each stage runs even when an earlier one reports failed sports;
// the errors are joined for the exit-code decision.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	analyzeErr := a.AnalyzeMode(ctx, deps)
	gradeErr := a.GradeMode(ctx, deps)
	arbErr := a.ArbitrageMode(ctx, deps)
	return errors.Join(analyzeErr, gradeErr, arbErr)
}

// printJSON writes v to stdout as indented JSON. Run output goes to
// stdout; logs go to stderr via slog.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("app: encode output: %w", err)
	}
	return nil
}
