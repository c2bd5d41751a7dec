// Package scoring provides a market-implied implementation of
// domain.ScoreModel. The production statistical model is an external
// collaborator; this adapter keeps the pipeline runnable without it by
// deriving a prediction from the consensus odds snapshot, with the
// calibration biases applied additively the same way the real model
// consumes them.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/shataken-source/progno/internal/domain"
)

// MarketModel predicts from vig-stripped market prices.
type MarketModel struct {
	stake float64
}

// NewMarketModel creates a MarketModel placing the given nominal stake on
// each pick.
func NewMarketModel(stake float64) *MarketModel {
	if stake <= 0 {
		stake = 100
	}
	return &MarketModel{stake: stake}
}

// Predict implements domain.ScoreModel.
func (m *MarketModel) Predict(_ context.Context, game domain.Game, cal domain.CalibrationState) (domain.Prediction, error) {
	if game.HomeTeam == "" || game.AwayTeam == "" {
		return domain.Prediction{}, fmt.Errorf("scoring: game %s missing teams", game.ID)
	}

	// Strip the vig: normalize the two implied probabilities so they sum
	// to one, then apply the confidence bias.
	rawHome := impliedProb(game.Odds.MoneylineHome)
	rawAway := impliedProb(game.Odds.MoneylineAway)
	homeProb := 0.5
	if rawHome+rawAway > 0 {
		homeProb = rawHome / (rawHome + rawAway)
	}
	homeProb = clamp(homeProb+cal.ConfidenceBias, 0.02, 0.98)

	spread := game.Odds.Spread + cal.SpreadBias
	total := game.Odds.Total + cal.TotalBias

	// Negative spread favors home: predicted margin is -spread.
	homeScore := int(math.Round((total - spread) / 2))
	awayScore := int(math.Round((total + spread) / 2))
	if homeScore < 0 {
		homeScore = 0
	}
	if awayScore < 0 {
		awayScore = 0
	}

	winner := game.HomeTeam
	confidence := homeProb
	pickPrice := game.Odds.MoneylineHome
	if homeProb < 0.5 {
		winner = game.AwayTeam
		confidence = 1 - homeProb
		pickPrice = game.Odds.MoneylineAway
	}

	return domain.Prediction{
		GameID:     game.ID,
		Sport:      game.Sport,
		Winner:     winner,
		Confidence: confidence,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		Stake:      m.stake,
		Pick:       fmt.Sprintf("%s ML", winner),
		Edge:       confidence - impliedProb(pickPrice),
		Rationale:  fmt.Sprintf("market-implied %.1f%% on %s", confidence*100, winner),
	}, nil
}

func impliedProb(price float64) float64 {
	if price == 0 {
		return 0.5
	}
	if price > 0 {
		return 100 / (price + 100)
	}
	return math.Abs(price) / (math.Abs(price) + 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Compile-time interface check.
var _ domain.ScoreModel = (*MarketModel)(nil)
