package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

// ArtifactWriter writes per-sport run artifacts under <dir>/runs. Each run
// produces a timestamped file plus an overwritten <sport>-latest.json so
// downstream consumers always have a stable path to the newest run.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates the writer with its runs directory.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	runs := filepath.Join(dir, "runs")
	if err := os.MkdirAll(runs, 0o755); err != nil {
		return nil, fmt.Errorf("file: create runs dir: %w", err)
	}
	return &ArtifactWriter{dir: runs}, nil
}

// WriteRun persists v for sport and returns the timestamped file path.
func (w *ArtifactWriter) WriteRun(sport domain.Sport, at time.Time, v any) (string, error) {
	name := fmt.Sprintf("%s-%s.json", sport, at.UTC().Format("20060102-150405"))
	path := filepath.Join(w.dir, name)
	if err := writeJSON(path, v); err != nil {
		return "", err
	}
	latest := filepath.Join(w.dir, fmt.Sprintf("%s-latest.json", sport))
	if err := writeJSON(latest, v); err != nil {
		return "", err
	}
	return path, nil
}
