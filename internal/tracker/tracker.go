// Package tracker persists scoring-model predictions, grades them against
// final scores, and aggregates the accuracy metrics the calibration loop
// feeds on.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shataken-source/progno/internal/domain"
)

// winProfitRate is the winner's profit per unit staked under the fixed
// -110-vig assumption.
const winProfitRate = 0.91

// Tracker is the prediction store front. Memory is the source of truth;
// the backing store is best effort. On the first persistence error the
// tracker logs it and degrades to memory-only for the rest of the process.
type Tracker struct {
	mu          sync.Mutex
	store       domain.PredictionStore
	storeBroken bool
	predictions map[string]domain.Prediction
	order       []string
	logger      *slog.Logger
}

// New creates a Tracker and loads any previously persisted predictions.
// store may be nil for memory-only operation.
func New(ctx context.Context, store domain.PredictionStore, logger *slog.Logger) *Tracker {
	t := &Tracker{
		store:       store,
		predictions: make(map[string]domain.Prediction),
		logger:      logger.With(slog.String("component", "prediction_tracker")),
	}

	if store != nil {
		existing, err := store.List(ctx)
		if err != nil {
			t.logger.Warn("loading persisted predictions failed, continuing in memory",
				slog.String("error", err.Error()),
			)
			t.storeBroken = true
		} else {
			for _, p := range existing {
				t.predictions[p.ID] = p
				t.order = append(t.order, p.ID)
			}
		}
	}
	return t
}

// HasPendingPredictionForGameID reports whether a pending prediction
// already exists for the game. Callers use this to guard AddPrediction.
func (t *Tracker) HasPendingPredictionForGameID(gameID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingForGameLocked(gameID) != ""
}

func (t *Tracker) pendingForGameLocked(gameID string) string {
	for id, p := range t.predictions {
		if p.GameID == gameID && p.Result.Status == domain.PredictionPending {
			return id
		}
	}
	return ""
}

// AddPrediction inserts a new pending prediction. A second pending insert
// for the same game returns domain.ErrAlreadyExists.
func (t *Tracker) AddPrediction(ctx context.Context, p domain.Prediction) (domain.Prediction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingForGameLocked(p.GameID) != "" {
		return domain.Prediction{}, domain.ErrAlreadyExists
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.Result = domain.PredictionResult{Status: domain.PredictionPending}
	p.Accuracy = domain.PredictionAccuracy{}

	t.predictions[p.ID] = p
	t.order = append(t.order, p.ID)
	t.persistLocked(ctx, p, true)
	return p, nil
}

// UpdatePredictionResult grades one pending prediction against the actual
// outcome. It returns false when the prediction is unknown or already
// graded; grading happens exactly once.
func (t *Tracker) UpdatePredictionResult(ctx context.Context, id string, winner string, homeScore, awayScore int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gradeLocked(ctx, id, winner, homeScore, awayScore)
}

func (t *Tracker) gradeLocked(ctx context.Context, id, winner string, homeScore, awayScore int) (bool, error) {
	p, ok := t.predictions[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Graded() {
		return false, nil
	}

	correct := p.Winner == winner

	status := domain.PredictionLose
	if correct {
		status = domain.PredictionWin
	}
	p.Result = domain.PredictionResult{
		Winner:    winner,
		HomeScore: homeScore,
		AwayScore: awayScore,
		Status:    status,
	}

	p.Accuracy = domain.PredictionAccuracy{
		WinnerCorrect: correct,
		ScoreAccuracy: scoreAccuracy(p.HomeScore, p.AwayScore, homeScore, awayScore),
		Profit:        profitAt110(p.Stake, correct),
	}

	t.predictions[id] = p
	t.persistLocked(ctx, p, false)
	return true, nil
}

// UpdatePredictionsFromLiveGames batch-grades pending predictions against
// a feed of completed games, matching by game ID. Idempotent: a graded
// prediction is excluded from further matching, so replaying the same feed
// reports zero additional updates.
func (t *Tracker) UpdatePredictionsFromLiveGames(ctx context.Context, games []domain.Game) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	updated := 0
	for _, game := range games {
		if !game.Completed || game.Score == nil {
			continue
		}
		id := t.pendingForGameLocked(game.ID)
		if id == "" {
			continue
		}

		winner := game.HomeTeam
		if game.Score.Away > game.Score.Home {
			winner = game.AwayTeam
		}
		if ok, err := t.gradeLocked(ctx, id, winner, game.Score.Home, game.Score.Away); err == nil && ok {
			updated++
		}
	}
	return updated
}

// Predictions returns every tracked prediction in insertion order.
func (t *Tracker) Predictions() []domain.Prediction {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Prediction, 0, len(t.order))
	for _, id := range t.order {
		if p, ok := t.predictions[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// scoreAccuracy is 100 minus 5 points per combined point of home+away
// error, floored at zero.
func scoreAccuracy(predHome, predAway, actHome, actAway int) float64 {
	errPoints := abs(predHome-actHome) + abs(predAway-actAway)
	acc := 100 - 5*float64(errPoints)
	if acc < 0 {
		return 0
	}
	return acc
}

func profitAt110(stake float64, won bool) float64 {
	if won {
		return stake * winProfitRate
	}
	return -stake
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// persistLocked writes one prediction through the backing store. A failure
// is logged and flips the tracker to memory-only; pipeline progress never
// depends on persistence.
func (t *Tracker) persistLocked(ctx context.Context, p domain.Prediction, insert bool) {
	if t.store == nil || t.storeBroken {
		return
	}

	var err error
	if insert {
		err = t.store.Insert(ctx, p)
	} else {
		err = t.store.Update(ctx, p)
	}
	if err != nil {
		t.storeBroken = true
		t.logger.Error("prediction persistence failed, degrading to memory-only",
			slog.String("prediction_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}
