package tracker

import (
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

// confidenceBuckets are the decile bands accuracy is reported under. Every
// bucket is computed the same way, which lets the calibration step spot
// systematic over- or under-confidence per band.
var confidenceBuckets = []struct {
	label string
	lo    float64
	hi    float64
}{
	{"50-60", 0.50, 0.60},
	{"60-70", 0.60, 0.70},
	{"70-80", 0.70, 0.80},
	{"80-90", 0.80, 0.90},
	{"90-100", 0.90, 1.01},
}

// GetAccuracyMetrics aggregates win rate, average confidence, average
// profit, and ROI overall, by sport, and by confidence decile bucket.
// Only graded predictions contribute.
func (t *Tracker) GetAccuracyMetrics() domain.AccuracyMetrics {
	predictions := t.Predictions()

	metrics := domain.AccuracyMetrics{
		BySport:      make(map[domain.Sport]domain.BucketMetrics),
		ByConfidence: make(map[string]domain.BucketMetrics),
		GeneratedAt:  time.Now(),
	}

	var graded []domain.Prediction
	for _, p := range predictions {
		if p.Graded() {
			graded = append(graded, p)
		} else {
			metrics.Pending++
		}
	}

	metrics.Overall = computeBucket(graded)

	bySport := make(map[domain.Sport][]domain.Prediction)
	for _, p := range graded {
		bySport[p.Sport] = append(bySport[p.Sport], p)
	}
	for sport, preds := range bySport {
		metrics.BySport[sport] = computeBucket(preds)
	}

	for _, bucket := range confidenceBuckets {
		var preds []domain.Prediction
		for _, p := range graded {
			if p.Confidence >= bucket.lo && p.Confidence < bucket.hi {
				preds = append(preds, p)
			}
		}
		if len(preds) > 0 {
			metrics.ByConfidence[bucket.label] = computeBucket(preds)
		}
	}
	return metrics
}

func computeBucket(preds []domain.Prediction) domain.BucketMetrics {
	b := domain.BucketMetrics{Predictions: len(preds)}
	if len(preds) == 0 {
		return b
	}

	var confSum float64
	for _, p := range preds {
		if p.Result.Status == domain.PredictionWin {
			b.Wins++
		} else {
			b.Losses++
		}
		confSum += p.Confidence
		b.TotalProfit += p.Accuracy.Profit
		b.TotalStaked += p.Stake
	}

	n := float64(len(preds))
	b.WinRate = float64(b.Wins) / n
	b.AvgConfidence = confSum / n
	b.AvgProfit = b.TotalProfit / n
	if b.TotalStaked > 0 {
		b.ROI = b.TotalProfit / b.TotalStaked
	}
	return b
}
