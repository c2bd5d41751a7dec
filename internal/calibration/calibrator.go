// Package calibration turns aggregated grading results into small bias
// corrections for the scoring model. It runs on a schedule (weekly in
// production); hard clamps keep any single bad week from destabilizing
// future output.
package calibration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

// Source supplies grading data; satisfied by the tracker.
type Source interface {
	GetAccuracyMetrics() domain.AccuracyMetrics
	Predictions() []domain.Prediction
}

// Config tunes the calibration update.
type Config struct {
	DampingFactor     float64       // applied to (winRate - avgConfidence)
	MaxConfidenceStep float64       // per-update confidence bias step
	SpreadGain        float64       // applied to mean margin error
	MaxSpreadStep     float64       // per-update spread bias step, points
	TotalGain         float64       // applied to mean total error
	MaxTotalStep      float64       // per-update total bias step, points
	RecentWindow      time.Duration // completed games considered for line error
	MinSample         int           // graded predictions required before adjusting
}

// DefaultConfig carries the production calibration parameters.
func DefaultConfig() Config {
	return Config{
		DampingFactor:     0.25,
		MaxConfidenceStep: 0.01,
		SpreadGain:        0.5,
		MaxSpreadStep:     0.5,
		TotalGain:         0.5,
		MaxTotalStep:      1.5,
		RecentWindow:      7 * 24 * time.Hour,
		MinSample:         10,
	}
}

// Calibrator derives and persists calibration state.
type Calibrator struct {
	source Source
	store  domain.CalibrationStore
	cfg    Config
	logger *slog.Logger
}

// New creates a Calibrator.
func New(source Source, store domain.CalibrationStore, cfg Config, logger *slog.Logger) *Calibrator {
	if cfg.MinSample <= 0 {
		cfg = DefaultConfig()
	}
	return &Calibrator{
		source: source,
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "calibrator")),
	}
}

// Current returns the persisted calibration state, or the zero state when
// none has been saved yet.
func (c *Calibrator) Current(ctx context.Context) domain.CalibrationState {
	state, err := c.store.Load(ctx)
	if err != nil {
		return domain.CalibrationState{}
	}
	return state.Clamped()
}

// Update recomputes the calibration state from current metrics and recent
// grading results, adds the clamped deltas to the persisted state, and
// saves it. The next analysis cycle reads the result as an additive input
// to the scoring model.
func (c *Calibrator) Update(ctx context.Context) (domain.CalibrationState, error) {
	state := c.Current(ctx)
	metrics := c.source.GetAccuracyMetrics()

	if metrics.Overall.Predictions < c.cfg.MinSample {
		c.logger.Info("not enough graded predictions, skipping calibration",
			slog.Int("graded", metrics.Overall.Predictions),
			slog.Int("required", c.cfg.MinSample),
		)
		return state, nil
	}

	confDelta := clamp(
		(metrics.Overall.WinRate-metrics.Overall.AvgConfidence)*c.cfg.DampingFactor,
		-c.cfg.MaxConfidenceStep, c.cfg.MaxConfidenceStep,
	)

	spreadDelta, totalDelta := c.lineErrorDeltas()

	state.ConfidenceBias += confDelta
	state.SpreadBias += spreadDelta
	state.TotalBias += totalDelta
	state.UpdatedAt = time.Now()
	state = state.Clamped()

	if err := c.store.Save(ctx, state); err != nil {
		return state, fmt.Errorf("calibration: save state: %w", err)
	}

	c.logger.Info("calibration updated",
		slog.Float64("confidence_delta", confDelta),
		slog.Float64("spread_delta", spreadDelta),
		slog.Float64("total_delta", totalDelta),
		slog.Float64("confidence_bias", state.ConfidenceBias),
		slog.Float64("spread_bias", state.SpreadBias),
		slog.Float64("total_bias", state.TotalBias),
	)
	return state, nil
}

// lineErrorDeltas computes the mean predicted-vs-actual margin and total
// errors over recently graded games and converts them into damped,
// clamped bias deltas.
func (c *Calibrator) lineErrorDeltas() (spreadDelta, totalDelta float64) {
	cutoff := time.Now().Add(-c.cfg.RecentWindow)

	var marginErrSum, totalErrSum float64
	n := 0
	for _, p := range c.source.Predictions() {
		if !p.Graded() || p.CreatedAt.Before(cutoff) {
			continue
		}
		predMargin := float64(p.HomeScore - p.AwayScore)
		actMargin := float64(p.Result.HomeScore - p.Result.AwayScore)
		predTotal := float64(p.HomeScore + p.AwayScore)
		actTotal := float64(p.Result.HomeScore + p.Result.AwayScore)

		marginErrSum += predMargin - actMargin
		totalErrSum += predTotal - actTotal
		n++
	}
	if n == 0 {
		return 0, 0
	}

	// Over-predicting the home margin means the effective spread ran too
	// far negative; a positive spread bias corrects it. Over-predicting
	// totals pulls the total bias down.
	meanMarginErr := marginErrSum / float64(n)
	meanTotalErr := totalErrSum / float64(n)

	spreadDelta = clamp(meanMarginErr*c.cfg.SpreadGain, -c.cfg.MaxSpreadStep, c.cfg.MaxSpreadStep)
	totalDelta = clamp(-meanTotalErr*c.cfg.TotalGain, -c.cfg.MaxTotalStep, c.cfg.MaxTotalStep)
	return spreadDelta, totalDelta
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
