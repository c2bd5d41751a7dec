package arbitrage

import "math"

// ImpliedProbability converts an American price into its break-even win
// probability: +p is 100/(p+100), -p is |p|/(|p|+100).
func ImpliedProbability(price float64) float64 {
	if price > 0 {
		return 100 / (price + 100)
	}
	return math.Abs(price) / (math.Abs(price) + 100)
}

// payoutMultiplier returns total return per unit staked for an American
// price: +150 pays 2.5x, -200 pays 1.5x.
func payoutMultiplier(price float64) float64 {
	if price > 0 {
		return price/100 + 1
	}
	return 100/math.Abs(price) + 1
}

// roundCents rounds to two decimals.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
