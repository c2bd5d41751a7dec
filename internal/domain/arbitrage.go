package domain

import "time"

// Leg is one side of an arbitrage pairing: a stake placed at one bookmaker
// on one outcome.
type Leg struct {
	Bookmaker string  `json:"bookmaker"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Stake     float64 `json:"stake"`
}

// ArbitrageOpportunity is a certified cross-bookmaker pricing discrepancy:
// two opposite-outcome legs whose combined implied probability is below 1,
// guaranteeing a profit at observation time regardless of the result.
//
// Invariants: the two legs come from different bookmakers, Confidence is in
// [0, 0.99], and GuaranteedProfit is the recomputed payout on the rounded
// stakes, not the theoretical edge.
type ArbitrageOpportunity struct {
	ID               string     `json:"id"`
	GameID           string     `json:"game_id"`
	Market           MarketType `json:"market"`
	Legs             [2]Leg     `json:"legs"`
	TotalStake       float64    `json:"total_stake"`
	GuaranteedProfit float64    `json:"guaranteed_profit"`
	ProfitPct        float64    `json:"profit_pct"`
	Confidence       float64    `json:"confidence"`
	DetectedAt       time.Time  `json:"detected_at"`
	IsStale          bool       `json:"is_stale"`
	AgeSeconds       int        `json:"age_seconds"`
}
