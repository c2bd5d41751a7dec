package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

func TestPredictionStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewPredictionStore(dir)
	if err != nil {
		t.Fatalf("NewPredictionStore: %v", err)
	}
	ctx := context.Background()

	// Empty store lists empty without a file on disk.
	preds, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if len(preds) != 0 {
		t.Errorf("got %d predictions from empty store", len(preds))
	}

	p := domain.Prediction{
		ID:         "p1",
		GameID:     "nfl-g1",
		Sport:      domain.SportNFL,
		Winner:     "Patriots",
		Confidence: 0.62,
		Stake:      100,
		CreatedAt:  time.Now().UTC(),
		Result:     domain.PredictionResult{Status: domain.PredictionPending},
	}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// A fresh store instance reads the same file back.
	s2, err := NewPredictionStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	preds, err = s2.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(preds) != 1 || preds[0].ID != "p1" || preds[0].Winner != "Patriots" {
		t.Errorf("round trip = %+v", preds)
	}
}

func TestPredictionStoreDuplicateInsert(t *testing.T) {
	s, err := NewPredictionStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPredictionStore: %v", err)
	}
	ctx := context.Background()

	p := domain.Prediction{ID: "p1", GameID: "g1"}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, p); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate insert: got %v, want ErrAlreadyExists", err)
	}
}

func TestPredictionStoreUpdate(t *testing.T) {
	s, err := NewPredictionStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPredictionStore: %v", err)
	}
	ctx := context.Background()

	p := domain.Prediction{ID: "p1", GameID: "g1", Result: domain.PredictionResult{Status: domain.PredictionPending}}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	p.Result = domain.PredictionResult{Winner: "Patriots", HomeScore: 27, AwayScore: 20, Status: domain.PredictionWin}
	if err := s.Update(ctx, p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	preds, _ := s.List(ctx)
	if preds[0].Result.Status != domain.PredictionWin || preds[0].Result.HomeScore != 27 {
		t.Errorf("updated prediction = %+v", preds[0].Result)
	}

	if err := s.Update(ctx, domain.Prediction{ID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("updating unknown id: got %v, want ErrNotFound", err)
	}
}

func TestCalibrationStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCalibrationStore(dir)
	if err != nil {
		t.Fatalf("NewCalibrationStore: %v", err)
	}
	ctx := context.Background()

	// Missing file yields the zero state, not an error.
	state, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if state != (domain.CalibrationState{}) {
		t.Errorf("initial state = %+v, want zero", state)
	}

	want := domain.CalibrationState{SpreadBias: 0.5, TotalBias: -1.5, ConfidenceBias: 0.01, UpdatedAt: time.Now().UTC()}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SpreadBias != want.SpreadBias || got.TotalBias != want.TotalBias || got.ConfidenceBias != want.ConfidenceBias {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestOpportunityStoreNewestFirst(t *testing.T) {
	s, err := NewOpportunityStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewOpportunityStore: %v", err)
	}
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Insert(ctx, domain.ArbitrageOpportunity{ID: id, ProfitPct: 2}); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	opps, err := s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(opps) != 3 || opps[0].ID != "c" || opps[2].ID != "a" {
		t.Errorf("order = %+v, want newest first", opps)
	}

	limited, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "c" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestArtifactWriterWritesRunAndLatest(t *testing.T) {
	dir := t.TempDir()
	w, err := NewArtifactWriter(dir)
	if err != nil {
		t.Fatalf("NewArtifactWriter: %v", err)
	}

	at := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	payload := map[string]string{"sport": "nfl"}

	path, err := w.WriteRun(domain.SportNFL, at, payload)
	if err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if filepath.Base(path) != "nfl-20260901-123000.json" {
		t.Errorf("timestamped name = %s", filepath.Base(path))
	}

	latest := filepath.Join(dir, "runs", "nfl-latest.json")
	data, err := os.ReadFile(latest)
	if err != nil {
		t.Fatalf("read latest: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if got["sport"] != "nfl" {
		t.Errorf("latest payload = %v", got)
	}

	// A second run overwrites latest but keeps its own timestamped file.
	later := at.Add(time.Hour)
	if _, err := w.WriteRun(domain.SportNFL, later, map[string]string{"sport": "nfl", "run": "2"}); err != nil {
		t.Fatalf("second WriteRun: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "runs"))
	if err != nil {
		t.Fatalf("read runs dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("runs dir has %d files, want 2 timestamped plus latest", len(entries))
	}

	data, _ = os.ReadFile(latest)
	var got2 map[string]string
	if err := json.Unmarshal(data, &got2); err != nil {
		t.Fatalf("decode latest after overwrite: %v", err)
	}
	if got2["run"] != "2" {
		t.Errorf("latest not overwritten: %v", got2)
	}
}
