package domain

import "time"

// MarketType identifies one of the three scanned betting markets.
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
)

// Totals-market side labels as the primary provider emits them.
const (
	SideOver  = "Over"
	SideUnder = "Under"
)

// MarketQuote is one bookmaker's price for one side of one market.
// Price is American odds; Point is the spread or total line where the
// market has one. LastUpdate drives staleness checks in the scanner.
type MarketQuote struct {
	Bookmaker  string     `json:"bookmaker"`
	Market     MarketType `json:"market"`
	Side       string     `json:"side"`
	Price      float64    `json:"price"`
	Point      float64    `json:"point,omitempty"`
	LastUpdate time.Time  `json:"last_update"`
}

// GameBoard is a game together with every per-bookmaker quote the primary
// provider returned for it. The arbitrage scanner consumes boards; the
// consensus OddsSnapshot on Game is for everything downstream of it.
type GameBoard struct {
	Game   Game          `json:"game"`
	Quotes []MarketQuote `json:"quotes"`
}

// QuotesFor returns the board's quotes for one market type.
func (b GameBoard) QuotesFor(market MarketType) []MarketQuote {
	var out []MarketQuote
	for _, q := range b.Quotes {
		if q.Market == market {
			out = append(out, q)
		}
	}
	return out
}
