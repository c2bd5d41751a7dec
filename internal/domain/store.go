package domain

import "context"

// PredictionStore persists predictions. The tracker treats persistence as
// best effort: a failing store is logged and the tracker continues from
// memory for the rest of the process lifetime.
type PredictionStore interface {
	Insert(ctx context.Context, p Prediction) error
	Update(ctx context.Context, p Prediction) error
	List(ctx context.Context) ([]Prediction, error)
}

// CalibrationStore persists the single CalibrationState record.
type CalibrationStore interface {
	Load(ctx context.Context) (CalibrationState, error)
	Save(ctx context.Context, state CalibrationState) error
}

// OpportunityStore records emitted arbitrage opportunities for audit.
type OpportunityStore interface {
	Insert(ctx context.Context, opp ArbitrageOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]ArbitrageOpportunity, error)
}

// ScoreModel turns a game into a prediction. The real statistical model is
// an external collaborator; anything satisfying this interface plugs in.
// CalibrationState is consumed as an additive input.
type ScoreModel interface {
	Predict(ctx context.Context, game Game, cal CalibrationState) (Prediction, error)
}
