package calibration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

type fakeSource struct {
	metrics domain.AccuracyMetrics
	preds   []domain.Prediction
}

func (f *fakeSource) GetAccuracyMetrics() domain.AccuracyMetrics { return f.metrics }
func (f *fakeSource) Predictions() []domain.Prediction           { return f.preds }

type fakeStore struct {
	state   domain.CalibrationState
	loadErr error
	saves   int
}

func (f *fakeStore) Load(context.Context) (domain.CalibrationState, error) {
	return f.state, f.loadErr
}

func (f *fakeStore) Save(_ context.Context, state domain.CalibrationState) error {
	f.state = state
	f.saves++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gradedPrediction(predHome, predAway, actHome, actAway int) domain.Prediction {
	return domain.Prediction{
		HomeScore: predHome,
		AwayScore: predAway,
		CreatedAt: time.Now().Add(-time.Hour),
		Result: domain.PredictionResult{
			HomeScore: actHome,
			AwayScore: actAway,
			Status:    domain.PredictionWin,
		},
	}
}

func TestUpdateSkipsBelowMinSample(t *testing.T) {
	source := &fakeSource{
		metrics: domain.AccuracyMetrics{Overall: domain.BucketMetrics{Predictions: 5}},
	}
	store := &fakeStore{state: domain.CalibrationState{SpreadBias: 1.5}}
	c := New(source, store, DefaultConfig(), testLogger())

	state, err := c.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if state.SpreadBias != 1.5 {
		t.Errorf("state changed below min sample: %+v", state)
	}
	if store.saves != 0 {
		t.Errorf("store saved %d times, want 0", store.saves)
	}
}

func TestUpdateConfidenceDeltaClamped(t *testing.T) {
	// Win rate far above average confidence. The raw delta 0.4 * 0.25 = 0.1
	// must be clamped to the per-update step.
	source := &fakeSource{
		metrics: domain.AccuracyMetrics{
			Overall: domain.BucketMetrics{Predictions: 20, WinRate: 1.0, AvgConfidence: 0.60},
		},
	}
	store := &fakeStore{}
	c := New(source, store, DefaultConfig(), testLogger())

	state, err := c.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if math.Abs(state.ConfidenceBias-0.01) > 1e-9 {
		t.Errorf("confidence bias = %g, want 0.01", state.ConfidenceBias)
	}
	if store.saves != 1 {
		t.Errorf("store saved %d times, want 1", store.saves)
	}
}

func TestUpdateOverconfidenceLowersBias(t *testing.T) {
	source := &fakeSource{
		metrics: domain.AccuracyMetrics{
			Overall: domain.BucketMetrics{Predictions: 20, WinRate: 0.50, AvgConfidence: 0.52},
		},
	}
	store := &fakeStore{}
	c := New(source, store, DefaultConfig(), testLogger())

	state, err := c.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// (0.50 - 0.52) * 0.25 = -0.005, inside the step.
	if math.Abs(state.ConfidenceBias-(-0.005)) > 1e-9 {
		t.Errorf("confidence bias = %g, want -0.005", state.ConfidenceBias)
	}
}

func TestUpdateLineErrorDeltas(t *testing.T) {
	// Every prediction over-calls the home margin by 6 and the total by 6.
	// Spread delta saturates at +0.5; total delta saturates at -1.5.
	var preds []domain.Prediction
	for i := 0; i < 12; i++ {
		preds = append(preds, gradedPrediction(30, 20, 24, 20))
	}
	source := &fakeSource{
		metrics: domain.AccuracyMetrics{
			Overall: domain.BucketMetrics{Predictions: 12, WinRate: 0.5, AvgConfidence: 0.5},
		},
		preds: preds,
	}
	store := &fakeStore{}
	c := New(source, store, DefaultConfig(), testLogger())

	state, err := c.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if math.Abs(state.SpreadBias-0.5) > 1e-9 {
		t.Errorf("spread bias = %g, want 0.5", state.SpreadBias)
	}
	if math.Abs(state.TotalBias-(-1.5)) > 1e-9 {
		t.Errorf("total bias = %g, want -1.5", state.TotalBias)
	}
}

func TestUpdateIgnoresOldAndUngradedPredictions(t *testing.T) {
	old := gradedPrediction(40, 10, 20, 20)
	old.CreatedAt = time.Now().Add(-30 * 24 * time.Hour)
	pending := domain.Prediction{
		HomeScore: 40, AwayScore: 10,
		CreatedAt: time.Now(),
		Result:    domain.PredictionResult{Status: domain.PredictionPending},
	}
	source := &fakeSource{
		metrics: domain.AccuracyMetrics{
			Overall: domain.BucketMetrics{Predictions: 15, WinRate: 0.5, AvgConfidence: 0.5},
		},
		preds: []domain.Prediction{old, pending},
	}
	store := &fakeStore{}
	c := New(source, store, DefaultConfig(), testLogger())

	state, err := c.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if state.SpreadBias != 0 || state.TotalBias != 0 {
		t.Errorf("line biases moved on excluded predictions: %+v", state)
	}
}

func TestBiasesAccumulateUnderHardClamp(t *testing.T) {
	source := &fakeSource{
		metrics: domain.AccuracyMetrics{
			Overall: domain.BucketMetrics{Predictions: 20, WinRate: 0.5, AvgConfidence: 0.5},
		},
	}
	// Repeated max-step updates accumulate but never escape the hard range.
	store := &fakeStore{}
	c := New(source, store, DefaultConfig(), testLogger())
	for i := 0; i < 30; i++ {
		source.preds = []domain.Prediction{gradedPrediction(50, 10, 20, 20)}
		if _, err := c.Update(context.Background()); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	if store.state.SpreadBias > domain.MaxSpreadBias {
		t.Errorf("spread bias %g escaped hard clamp %g", store.state.SpreadBias, domain.MaxSpreadBias)
	}
	if math.Abs(store.state.SpreadBias-domain.MaxSpreadBias) > 1e-9 {
		t.Errorf("spread bias = %g, want saturated at %g", store.state.SpreadBias, domain.MaxSpreadBias)
	}
}

func TestCurrentReturnsZeroStateOnLoadError(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("no state yet")}
	c := New(&fakeSource{}, store, DefaultConfig(), testLogger())

	state := c.Current(context.Background())
	if state != (domain.CalibrationState{}) {
		t.Errorf("got %+v, want zero state", state)
	}
}

func TestClampedHardRanges(t *testing.T) {
	state := domain.CalibrationState{SpreadBias: 99, TotalBias: -99, ConfidenceBias: 1}.Clamped()
	if state.SpreadBias != domain.MaxSpreadBias {
		t.Errorf("spread bias = %g, want %g", state.SpreadBias, domain.MaxSpreadBias)
	}
	if state.TotalBias != -domain.MaxTotalBias {
		t.Errorf("total bias = %g, want %g", state.TotalBias, -domain.MaxTotalBias)
	}
	if state.ConfidenceBias != domain.MaxConfidenceBias {
		t.Errorf("confidence bias = %g, want %g", state.ConfidenceBias, domain.MaxConfidenceBias)
	}
}
