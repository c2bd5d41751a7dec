package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shataken-source/progno/internal/domain"
	"github.com/shataken-source/progno/internal/provider/oddsapi"
	"github.com/shataken-source/progno/internal/provider/sportsblaze"
)

// spreadToMoneyline derives an approximate two-sided moneyline from the
// home spread when no bookmaker offers head-to-head pricing. Fixed bands:
// a heavy favorite around -16.5 prices near -1200/+800, and so on down to
// a pick'em at -110/+110.
func spreadToMoneyline(spread float64) (home, away float64) {
	switch {
	case spread < -10:
		return -1200, 800
	case spread < -5:
		return -300, 250
	case spread < 0:
		return -150, 130
	case spread > 5:
		return 250, -300
	default:
		return -110, 110
	}
}

// mirrorPrice estimates the missing side of a one-sided moneyline.
func mirrorPrice(price float64) float64 {
	return -price
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func gameID(sport domain.Sport, providerID, homeTeam, awayTeam string) string {
	if providerID != "" {
		return fmt.Sprintf("%s-%s", sport, providerID)
	}
	return fmt.Sprintf("%s-%s-%s", sport, slugify(homeTeam), slugify(awayTeam))
}

func parseProviderTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}

// normalizeEvent flattens one provider event into a GameBoard: every
// per-bookmaker quote plus a consensus OddsSnapshot averaged across books.
// Downstream consumers always receive two-sided moneyline pricing even
// when books only posted a spread.
func normalizeEvent(ev oddsapi.Event, sport domain.Sport) domain.GameBoard {
	game := domain.Game{
		ID:           gameID(sport, ev.ID, ev.HomeTeam, ev.AwayTeam),
		Sport:        sport,
		League:       ev.SportTitle,
		HomeTeam:     ev.HomeTeam,
		AwayTeam:     ev.AwayTeam,
		CommenceTime: parseProviderTime(ev.CommenceTime),
		Venue:        "TBD",
	}

	var quotes []domain.MarketQuote
	var mlHome, mlAway, spreads, spreadHomePrices, spreadAwayPrices, totals, overPrices, underPrices []float64

	for _, book := range ev.Bookmakers {
		for _, market := range book.Markets {
			updated := parseProviderTime(market.LastUpdate)
			for _, outcome := range market.Outcomes {
				if outcome.Price == nil {
					continue // malformed record: skipped, not fatal
				}
				price := *outcome.Price
				var point float64
				if outcome.Point != nil {
					point = *outcome.Point
				}

				switch market.Key {
				case "h2h":
					var side string
					switch outcome.Name {
					case ev.HomeTeam:
						side = ev.HomeTeam
						mlHome = append(mlHome, price)
					case ev.AwayTeam:
						side = ev.AwayTeam
						mlAway = append(mlAway, price)
					default:
						continue // draw or unknown outcome name
					}
					quotes = append(quotes, domain.MarketQuote{
						Bookmaker: book.Title, Market: domain.MarketMoneyline,
						Side: side, Price: price, LastUpdate: updated,
					})
				case "spreads":
					var side string
					switch outcome.Name {
					case ev.HomeTeam:
						side = ev.HomeTeam
						spreads = append(spreads, point)
						spreadHomePrices = append(spreadHomePrices, price)
					case ev.AwayTeam:
						side = ev.AwayTeam
						spreadAwayPrices = append(spreadAwayPrices, price)
					default:
						continue
					}
					quotes = append(quotes, domain.MarketQuote{
						Bookmaker: book.Title, Market: domain.MarketSpread,
						Side: side, Price: price, Point: point, LastUpdate: updated,
					})
				case "totals":
					if outcome.Name != domain.SideOver && outcome.Name != domain.SideUnder {
						continue
					}
					if outcome.Name == domain.SideOver {
						totals = append(totals, point)
						overPrices = append(overPrices, price)
					} else {
						underPrices = append(underPrices, price)
					}
					quotes = append(quotes, domain.MarketQuote{
						Bookmaker: book.Title, Market: domain.MarketTotal,
						Side: outcome.Name, Price: price, Point: point, LastUpdate: updated,
					})
				}
			}
		}
	}

	game.Odds = consensusSnapshot(sport, mlHome, mlAway, spreads, spreadHomePrices, spreadAwayPrices, totals, overPrices, underPrices)
	return domain.GameBoard{Game: game, Quotes: quotes}
}

// consensusSnapshot averages per-book prices into one two-sided snapshot,
// filling gaps from the spread bands or neutral defaults.
func consensusSnapshot(sport domain.Sport, mlHome, mlAway, spreads, spreadHome, spreadAway, totals, over, under []float64) domain.OddsSnapshot {
	snap := domain.OddsSnapshot{
		Bookmaker: "consensus",
		UpdatedAt: time.Now(),
	}

	spread, haveSpread := mean(spreads)
	snap.Spread = spread

	home, haveHome := mean(mlHome)
	away, haveAway := mean(mlAway)
	switch {
	case haveHome && haveAway:
		snap.MoneylineHome = home
		snap.MoneylineAway = away
	case !haveHome && !haveAway && haveSpread:
		snap.MoneylineHome, snap.MoneylineAway = spreadToMoneyline(spread)
	case haveHome:
		snap.MoneylineHome = home
		snap.MoneylineAway = mirrorPrice(home)
	case haveAway:
		snap.MoneylineAway = away
		snap.MoneylineHome = mirrorPrice(away)
	default:
		snap.MoneylineHome, snap.MoneylineAway = -110, 110
	}

	snap.SpreadHomePrice = meanOr(spreadHome, -110)
	snap.SpreadAwayPrice = meanOr(spreadAway, -110)
	snap.Total = meanOr(totals, domain.DefaultTotal(sport))
	snap.OverPrice = meanOr(over, -110)
	snap.UnderPrice = meanOr(under, -110)
	return snap
}

func mean(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

func meanOr(vals []float64, fallback float64) float64 {
	if m, ok := mean(vals); ok {
		return m
	}
	return fallback
}

// normalizeScore maps a scores-endpoint event into a Game carrying the
// live or final score. It returns false when the score lines are missing
// or unparsable; the caller skips the record.
func normalizeScore(ev oddsapi.ScoreEvent, sport domain.Sport) (domain.Game, bool) {
	game := domain.Game{
		ID:           gameID(sport, ev.ID, ev.HomeTeam, ev.AwayTeam),
		Sport:        sport,
		HomeTeam:     ev.HomeTeam,
		AwayTeam:     ev.AwayTeam,
		CommenceTime: parseProviderTime(ev.CommenceTime),
		Completed:    ev.Completed,
	}

	if len(ev.Scores) == 0 {
		if ev.Completed {
			return domain.Game{}, false
		}
		return game, true
	}

	var score domain.Score
	var haveHome, haveAway bool
	for _, line := range ev.Scores {
		n, err := strconv.Atoi(strings.TrimSpace(line.Score))
		if err != nil {
			continue
		}
		switch line.Name {
		case ev.HomeTeam:
			score.Home = n
			haveHome = true
		case ev.AwayTeam:
			score.Away = n
			haveAway = true
		}
	}
	if !haveHome || !haveAway {
		return domain.Game{}, false
	}
	game.Score = &score
	return game, true
}

// normalizeSchedule maps a fallback schedule game into the internal shape
// with synthesized neutral odds.
func normalizeSchedule(sg sportsblaze.ScheduleGame, sport domain.Sport) domain.Game {
	venue := sg.Venue
	if venue == "" {
		venue = "TBD"
	}
	return domain.Game{
		ID:           gameID(sport, sg.ID, sg.HomeTeam, sg.AwayTeam),
		Sport:        sport,
		HomeTeam:     sg.HomeTeam,
		AwayTeam:     sg.AwayTeam,
		CommenceTime: parseProviderTime(sg.Date),
		Venue:        venue,
		Odds:         domain.NeutralOdds(sport, "sportsblaze (neutral)"),
	}
}
