package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shataken-source/progno/internal/domain"
)

// PredictionStore implements domain.PredictionStore using PostgreSQL.
type PredictionStore struct {
	pool *pgxpool.Pool
}

// NewPredictionStore creates a new PredictionStore backed by the given pool.
func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

const predictionSelectCols = `id, game_id, sport, winner, confidence,
	predicted_home_score, predicted_away_score, stake, pick, edge, rationale,
	created_at, result_winner, result_home_score, result_away_score, status,
	winner_correct, score_accuracy, profit`

// Insert stores a new prediction.
func (s *PredictionStore) Insert(ctx context.Context, p domain.Prediction) error {
	const query = `
		INSERT INTO predictions (
			id, game_id, sport, winner, confidence,
			predicted_home_score, predicted_away_score, stake, pick, edge, rationale,
			created_at, result_winner, result_home_score, result_away_score, status,
			winner_correct, score_accuracy, profit
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16,
			$17, $18, $19
		)`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.GameID, p.Sport, p.Winner, p.Confidence,
		p.HomeScore, p.AwayScore, p.Stake, p.Pick, p.Edge, p.Rationale,
		p.CreatedAt, p.Result.Winner, p.Result.HomeScore, p.Result.AwayScore, p.Result.Status,
		p.Accuracy.WinnerCorrect, p.Accuracy.ScoreAccuracy, p.Accuracy.Profit,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: insert prediction %s: %w", p.ID, err)
	}
	return nil
}

// Update rewrites an existing prediction, typically after grading.
func (s *PredictionStore) Update(ctx context.Context, p domain.Prediction) error {
	const query = `
		UPDATE predictions SET
			winner            = $2,
			confidence        = $3,
			result_winner     = $4,
			result_home_score = $5,
			result_away_score = $6,
			status            = $7,
			winner_correct    = $8,
			score_accuracy    = $9,
			profit            = $10
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Winner, p.Confidence,
		p.Result.Winner, p.Result.HomeScore, p.Result.AwayScore, p.Result.Status,
		p.Accuracy.WinnerCorrect, p.Accuracy.ScoreAccuracy, p.Accuracy.Profit,
	)
	if err != nil {
		return fmt.Errorf("postgres: update prediction %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all predictions ordered by creation time.
func (s *PredictionStore) List(ctx context.Context) ([]domain.Prediction, error) {
	query := `SELECT ` + predictionSelectCols + ` FROM predictions ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list predictions: %w", err)
	}
	defer rows.Close()

	var preds []domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		if err := rows.Scan(
			&p.ID, &p.GameID, &p.Sport, &p.Winner, &p.Confidence,
			&p.HomeScore, &p.AwayScore, &p.Stake, &p.Pick, &p.Edge, &p.Rationale,
			&p.CreatedAt, &p.Result.Winner, &p.Result.HomeScore, &p.Result.AwayScore, &p.Result.Status,
			&p.Accuracy.WinnerCorrect, &p.Accuracy.ScoreAccuracy, &p.Accuracy.Profit,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan prediction: %w", err)
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list predictions rows: %w", err)
	}
	return preds, nil
}

var _ domain.PredictionStore = (*PredictionStore)(nil)
