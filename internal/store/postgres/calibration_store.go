package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shataken-source/progno/internal/domain"
)

// CalibrationStore implements domain.CalibrationStore using PostgreSQL.
// The table holds exactly one row, upserted on every save.
type CalibrationStore struct {
	pool *pgxpool.Pool
}

// NewCalibrationStore creates a new CalibrationStore backed by the given pool.
func NewCalibrationStore(pool *pgxpool.Pool) *CalibrationStore {
	return &CalibrationStore{pool: pool}
}

// Load returns the persisted calibration state. A missing row yields the
// zero state, not an error.
func (s *CalibrationStore) Load(ctx context.Context) (domain.CalibrationState, error) {
	const query = `
		SELECT spread_bias, total_bias, confidence_bias, updated_at
		FROM calibration WHERE id = 1`

	var state domain.CalibrationState
	err := s.pool.QueryRow(ctx, query).Scan(
		&state.SpreadBias, &state.TotalBias, &state.ConfidenceBias, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CalibrationState{}, nil
		}
		return domain.CalibrationState{}, fmt.Errorf("postgres: load calibration: %w", err)
	}
	return state, nil
}

// Save upserts the calibration state.
func (s *CalibrationStore) Save(ctx context.Context, state domain.CalibrationState) error {
	const query = `
		INSERT INTO calibration (id, spread_bias, total_bias, confidence_bias, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			spread_bias     = EXCLUDED.spread_bias,
			total_bias      = EXCLUDED.total_bias,
			confidence_bias = EXCLUDED.confidence_bias,
			updated_at      = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		state.SpreadBias, state.TotalBias, state.ConfidenceBias, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save calibration: %w", err)
	}
	return nil
}

var _ domain.CalibrationStore = (*CalibrationStore)(nil)
