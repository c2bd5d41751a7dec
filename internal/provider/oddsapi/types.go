package oddsapi

// Boundary types for the primary provider's loosely-typed JSON. Optional
// fields are pointers so missing data is distinguishable from zero; the
// gateway rejects or normalizes unknown shapes so internal components never
// see raw provider variance.

// Event is one game with its nested bookmaker/market/outcome structure.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's markets for an event.
type Bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []Market `json:"markets"`
}

// Market is one market (h2h, spreads, totals) at one bookmaker.
type Market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is one priced side of a market. Point is present for spreads and
// totals only.
type Outcome struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
	Point *float64 `json:"point"`
}

// ScoreEvent is one game from the scores endpoint.
type ScoreEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Completed    bool        `json:"completed"`
	Scores       []TeamScore `json:"scores"`
}

// TeamScore is one team's score line. The provider sends scores as strings.
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}
