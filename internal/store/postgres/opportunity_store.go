package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shataken-source/progno/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Legs are stored as JSONB since they are only ever read back whole.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert records an emitted arbitrage opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	const query = `
		INSERT INTO arb_opportunities (
			id, game_id, market, legs,
			total_stake, guaranteed_profit, profit_pct, confidence, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return fmt.Errorf("postgres: encode legs for %s: %w", opp.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.GameID, opp.Market, legs,
		opp.TotalStake, opp.GuaranteedProfit, opp.ProfitPct, opp.Confidence, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	query := `
		SELECT id, game_id, market, legs,
			total_stake, guaranteed_profit, profit_pct, confidence, detected_at
		FROM arb_opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		var opp domain.ArbitrageOpportunity
		var legs []byte
		if err := rows.Scan(
			&opp.ID, &opp.GameID, &opp.Market, &legs,
			&opp.TotalStake, &opp.GuaranteedProfit, &opp.ProfitPct, &opp.Confidence, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		if err := json.Unmarshal(legs, &opp.Legs); err != nil {
			return nil, fmt.Errorf("postgres: decode legs for %s: %w", opp.ID, err)
		}
		opp.AgeSeconds = int(now.Sub(opp.DetectedAt).Seconds())
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return opps, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
