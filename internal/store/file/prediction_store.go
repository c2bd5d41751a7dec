// Package file implements the persistence interfaces on the local
// filesystem: a JSON predictions store appended to per run, a single
// calibration.json, and per-sport per-run artifacts with an overwritten
// "latest" pointer.
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

const predictionsFile = "predictions.json"

// PredictionStore persists predictions as one JSON document. Writes go
// through a temp file and rename so a crashed run never truncates history.
type PredictionStore struct {
	mu   sync.Mutex
	path string
}

// NewPredictionStore creates the store under dir, creating dir as needed.
func NewPredictionStore(dir string) (*PredictionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create data dir: %w", err)
	}
	return &PredictionStore{path: filepath.Join(dir, predictionsFile)}, nil
}

func (s *PredictionStore) load() ([]domain.Prediction, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: read predictions: %w", err)
	}
	var preds []domain.Prediction
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, fmt.Errorf("file: decode predictions: %w", err)
	}
	return preds, nil
}

func (s *PredictionStore) save(preds []domain.Prediction) error {
	return writeJSON(s.path, preds)
}

// Insert implements domain.PredictionStore.
func (s *PredictionStore) Insert(_ context.Context, p domain.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	preds, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range preds {
		if existing.ID == p.ID {
			return domain.ErrAlreadyExists
		}
	}
	return s.save(append(preds, p))
}

// Update implements domain.PredictionStore.
func (s *PredictionStore) Update(_ context.Context, p domain.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	preds, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range preds {
		if existing.ID == p.ID {
			preds[i] = p
			return s.save(preds)
		}
	}
	return domain.ErrNotFound
}

// List implements domain.PredictionStore.
func (s *PredictionStore) List(_ context.Context) ([]domain.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// writeJSON writes v as indented JSON via temp-file-and-rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PredictionStore = (*PredictionStore)(nil)
