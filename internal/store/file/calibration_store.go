package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/shataken-source/progno/internal/domain"
)

const calibrationFile = "calibration.json"

// CalibrationStore keeps the single calibration record in calibration.json.
type CalibrationStore struct {
	mu   sync.Mutex
	path string
}

// NewCalibrationStore creates the store under dir, creating dir as needed.
func NewCalibrationStore(dir string) (*CalibrationStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create data dir: %w", err)
	}
	return &CalibrationStore{path: filepath.Join(dir, calibrationFile)}, nil
}

// Load implements domain.CalibrationStore. A missing file yields the zero
// state, not an error.
func (s *CalibrationStore) Load(_ context.Context) (domain.CalibrationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CalibrationState{}, nil
		}
		return domain.CalibrationState{}, fmt.Errorf("file: read calibration: %w", err)
	}
	var state domain.CalibrationState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.CalibrationState{}, fmt.Errorf("file: decode calibration: %w", err)
	}
	return state, nil
}

// Save implements domain.CalibrationStore.
func (s *CalibrationStore) Save(_ context.Context, state domain.CalibrationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, state)
}

var _ domain.CalibrationStore = (*CalibrationStore)(nil)
