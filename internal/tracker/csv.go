package tracker

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ExportToCSV produces a flat audit dump of every tracked prediction.
func (t *Tracker) ExportToCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "game_id", "sport", "created_at",
		"predicted_winner", "confidence", "predicted_home", "predicted_away",
		"stake", "pick", "edge",
		"status", "actual_winner", "actual_home", "actual_away",
		"winner_correct", "score_accuracy", "profit",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("tracker: export csv: %w", err)
	}

	for _, p := range t.Predictions() {
		row := []string{
			p.ID,
			p.GameID,
			string(p.Sport),
			p.CreatedAt.Format(time.RFC3339),
			p.Winner,
			strconv.FormatFloat(p.Confidence, 'f', 4, 64),
			strconv.Itoa(p.HomeScore),
			strconv.Itoa(p.AwayScore),
			strconv.FormatFloat(p.Stake, 'f', 2, 64),
			p.Pick,
			strconv.FormatFloat(p.Edge, 'f', 4, 64),
			string(p.Result.Status),
			p.Result.Winner,
			strconv.Itoa(p.Result.HomeScore),
			strconv.Itoa(p.Result.AwayScore),
			strconv.FormatBool(p.Accuracy.WinnerCorrect),
			strconv.FormatFloat(p.Accuracy.ScoreAccuracy, 'f', 1, 64),
			strconv.FormatFloat(p.Accuracy.Profit, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("tracker: export csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("tracker: export csv: %w", err)
	}
	return buf.Bytes(), nil
}
