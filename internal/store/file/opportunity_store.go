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

const opportunitiesFile = "opportunities.json"

// maxOpportunities caps the audit log so the JSON file stays bounded.
const maxOpportunities = 5000

// OpportunityStore appends emitted opportunities to opportunities.json,
// newest first, pruned to a fixed cap.
type OpportunityStore struct {
	mu   sync.Mutex
	path string
}

// NewOpportunityStore creates the store under dir, creating dir as needed.
func NewOpportunityStore(dir string) (*OpportunityStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create data dir: %w", err)
	}
	return &OpportunityStore{path: filepath.Join(dir, opportunitiesFile)}, nil
}

func (s *OpportunityStore) load() ([]domain.ArbitrageOpportunity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: read opportunities: %w", err)
	}
	var opps []domain.ArbitrageOpportunity
	if err := json.Unmarshal(data, &opps); err != nil {
		return nil, fmt.Errorf("file: decode opportunities: %w", err)
	}
	return opps, nil
}

// Insert implements domain.OpportunityStore.
func (s *OpportunityStore) Insert(_ context.Context, opp domain.ArbitrageOpportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opps, err := s.load()
	if err != nil {
		return err
	}
	opps = append([]domain.ArbitrageOpportunity{opp}, opps...)
	if len(opps) > maxOpportunities {
		opps = opps[:maxOpportunities]
	}
	return writeJSON(s.path, opps)
}

// ListRecent implements domain.OpportunityStore.
func (s *OpportunityStore) ListRecent(_ context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opps, err := s.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(opps) > limit {
		opps = opps[:limit]
	}
	return opps, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
