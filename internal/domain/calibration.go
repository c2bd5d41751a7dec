package domain

import "time"

// Hard clamp ranges for CalibrationState fields. No single bad week can
// push a bias outside these bounds.
const (
	MaxSpreadBias     = 3.0
	MaxTotalBias      = 10.0
	MaxConfidenceBias = 0.05
)

// CalibrationState is the small persisted correction fed back into the
// scoring model on the next analysis cycle. Each field is an additive bias
// derived from historical prediction error and independently clamped.
type CalibrationState struct {
	SpreadBias     float64   `json:"spread_bias"`
	TotalBias      float64   `json:"total_bias"`
	ConfidenceBias float64   `json:"confidence_bias"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Clamped returns a copy of the state with every bias forced into its
// hard range.
func (c CalibrationState) Clamped() CalibrationState {
	c.SpreadBias = clampF(c.SpreadBias, -MaxSpreadBias, MaxSpreadBias)
	c.TotalBias = clampF(c.TotalBias, -MaxTotalBias, MaxTotalBias)
	c.ConfidenceBias = clampF(c.ConfidenceBias, -MaxConfidenceBias, MaxConfidenceBias)
	return c
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
