package domain

import "time"

// PredictionStatus is the grading state of a prediction.
type PredictionStatus string

const (
	PredictionPending PredictionStatus = "pending"
	PredictionWin     PredictionStatus = "win"
	PredictionLose    PredictionStatus = "lose"
)

// PredictionResult records the actual outcome a prediction was graded
// against. Zero value means not yet graded.
type PredictionResult struct {
	Winner    string           `json:"winner,omitempty"`
	HomeScore int              `json:"home_score"`
	AwayScore int              `json:"away_score"`
	Status    PredictionStatus `json:"status"`
}

// PredictionAccuracy holds the derived grading metrics for one prediction.
type PredictionAccuracy struct {
	WinnerCorrect bool    `json:"winner_correct"`
	ScoreAccuracy float64 `json:"score_accuracy"`
	Profit        float64 `json:"profit"`
}

// Prediction is one scoring-model pick for one game. A prediction is
// created pending, at most once per game per cycle, and transitions to
// win or lose exactly once.
type Prediction struct {
	ID         string             `json:"id"`
	GameID     string             `json:"game_id"`
	Sport      Sport              `json:"sport"`
	Winner     string             `json:"winner"`
	Confidence float64            `json:"confidence"`
	HomeScore  int                `json:"predicted_home_score"`
	AwayScore  int                `json:"predicted_away_score"`
	Stake      float64            `json:"stake"`
	Pick       string             `json:"pick"`
	Edge       float64            `json:"edge"`
	Rationale  string             `json:"rationale,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	Result     PredictionResult   `json:"result"`
	Accuracy   PredictionAccuracy `json:"accuracy"`
}

// Graded reports whether the prediction has left the pending state.
func (p Prediction) Graded() bool {
	return p.Result.Status == PredictionWin || p.Result.Status == PredictionLose
}

// BucketMetrics aggregates grading results for one slice of predictions
// (a sport, a confidence band, or the whole set).
type BucketMetrics struct {
	Predictions   int     `json:"predictions"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgProfit     float64 `json:"avg_profit"`
	TotalProfit   float64 `json:"total_profit"`
	TotalStaked   float64 `json:"total_staked"`
	ROI           float64 `json:"roi"`
}

// AccuracyMetrics is the tracker's aggregate view: overall, per sport, and
// per confidence decile bucket ("50-60" through "90-100"). Buckets let the
// calibration step see systematic over- or under-confidence.
type AccuracyMetrics struct {
	Overall      BucketMetrics            `json:"overall"`
	Pending      int                      `json:"pending"`
	BySport      map[Sport]BucketMetrics  `json:"by_sport"`
	ByConfidence map[string]BucketMetrics `json:"by_confidence"`
	GeneratedAt  time.Time                `json:"generated_at"`
}
