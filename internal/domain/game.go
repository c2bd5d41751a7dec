package domain

import "time"

// Sport identifies a supported league.
type Sport string

const (
	SportNFL Sport = "nfl"
	SportNBA Sport = "nba"
	SportMLB Sport = "mlb"
	SportNHL Sport = "nhl"
	SportCFB Sport = "cfb"
	SportCBB Sport = "cbb"
)

// ProviderSportKeys maps a Sport to the primary provider's sport key.
var ProviderSportKeys = map[Sport]string{
	SportNFL: "americanfootball_nfl",
	SportNBA: "basketball_nba",
	SportMLB: "baseball_mlb",
	SportNHL: "icehockey_nhl",
	SportCFB: "americanfootball_ncaaf",
	SportCBB: "basketball_ncaab",
}

// defaultTotals holds the neutral game-total line per sport, used when no
// bookmaker offers a totals market.
var defaultTotals = map[Sport]float64{
	SportNFL: 44,
	SportNBA: 220,
	SportNHL: 6,
	SportMLB: 8.5,
	SportCFB: 55,
	SportCBB: 145,
}

// DefaultTotal returns the neutral totals line for a sport.
func DefaultTotal(sport Sport) float64 {
	if t, ok := defaultTotals[sport]; ok {
		return t
	}
	return 44
}

// Score holds a game's live or final score.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// OddsSnapshot is a two-sided consensus price for one game at one moment.
// American odds throughout. A snapshot is immutable once built; a later
// fetch produces a new snapshot.
type OddsSnapshot struct {
	Bookmaker       string    `json:"bookmaker"`
	MoneylineHome   float64   `json:"moneyline_home"`
	MoneylineAway   float64   `json:"moneyline_away"`
	Spread          float64   `json:"spread"`
	SpreadHomePrice float64   `json:"spread_home_price"`
	SpreadAwayPrice float64   `json:"spread_away_price"`
	Total           float64   `json:"total"`
	OverPrice       float64   `json:"over_price"`
	UnderPrice      float64   `json:"under_price"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NeutralOdds returns the synthesized 50/50 snapshot used when the fallback
// schedule provider supplies a game without betting lines.
func NeutralOdds(sport Sport, bookmaker string) OddsSnapshot {
	return OddsSnapshot{
		Bookmaker:       bookmaker,
		MoneylineHome:   -110,
		MoneylineAway:   -110,
		Spread:          0,
		SpreadHomePrice: -110,
		SpreadAwayPrice: -110,
		Total:           DefaultTotal(sport),
		OverPrice:       -110,
		UnderPrice:      -110,
		UpdatedAt:       time.Now(),
	}
}

// Game is a single scheduled or completed game with its odds snapshot.
type Game struct {
	ID           string       `json:"id"`
	Sport        Sport        `json:"sport"`
	League       string       `json:"league"`
	HomeTeam     string       `json:"home_team"`
	AwayTeam     string       `json:"away_team"`
	CommenceTime time.Time    `json:"commence_time"`
	Venue        string       `json:"venue"`
	Odds         OddsSnapshot `json:"odds"`
	Score        *Score       `json:"score,omitempty"`
	Completed    bool         `json:"completed"`
}

// ProviderHealthStatus classifies a provider health probe outcome.
type ProviderHealthStatus string

const (
	HealthHealthy  ProviderHealthStatus = "healthy"
	HealthDegraded ProviderHealthStatus = "degraded"
	HealthDown     ProviderHealthStatus = "down"
)

// ProviderHealth is the result of a bounded health probe against an odds
// provider. A probe never fails; errors are folded into Status and Err.
type ProviderHealth struct {
	Name         string               `json:"name"`
	Status       ProviderHealthStatus `json:"status"`
	ResponseTime time.Duration        `json:"response_time"`
	LastChecked  time.Time            `json:"last_checked"`
	Err          string               `json:"error,omitempty"`
}
