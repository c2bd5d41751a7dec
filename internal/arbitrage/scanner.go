// Package arbitrage scans per-bookmaker odds boards for guaranteed-profit
// pricing discrepancies across three market types, with slop protection
// against stale, rounded, or malformed upstream data.
package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shataken-source/progno/internal/domain"
)

// BoardSource supplies per-bookmaker quotes; satisfied by the gateway.
type BoardSource interface {
	GetBoards(ctx context.Context, sport domain.Sport) ([]domain.GameBoard, error)
}

// Config holds the scanner's slop tolerances and stake sizing. Every value
// here used to be a hard-coded literal in earlier iterations of this
// system; all are now tunable.
type Config struct {
	MinProfit            float64       // caller-tunable profit floor, percent
	MaxAge               time.Duration // emitted opportunities older than this are flagged stale
	ProbabilityTolerance float64       // slack below 1.0 the implied-probability sum must clear
	OddsTolerance        float64       // safety margin added to MinProfit, percent points
	StaleThreshold       time.Duration // quotes older than this are rejected
	MinConfidenceForArb  float64       // fraction of the theoretical edge that must survive rounding
	Stake                float64       // nominal total stake allocated across both legs
	MaxPriceMagnitude    float64       // implausible-price cutoff
	MaxSpreadMagnitude   float64       // implausible-spread cutoff
}

// DefaultConfig carries the production slop tolerances.
func DefaultConfig() Config {
	return Config{
		MinProfit:            0.5,
		MaxAge:               30 * time.Second,
		ProbabilityTolerance: 0.001,
		OddsTolerance:        0.5,
		StaleThreshold:       60 * time.Second,
		MinConfidenceForArb:  0.98,
		Stake:                1000,
		MaxPriceMagnitude:    10000,
		MaxSpreadMagnitude:   30,
	}
}

// Scanner is the arbitrage engine.
type Scanner struct {
	source BoardSource
	cfg    Config
	logger *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(source BoardSource, cfg Config, logger *slog.Logger) *Scanner {
	if cfg.Stake <= 0 {
		cfg = DefaultConfig()
	}
	return &Scanner{
		source: source,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "arb_scanner")),
	}
}

// Scan fetches boards for every sport concurrently, scans each game's
// three market types independently, and returns all opportunities merged
// and sorted descending by profit percentage. A failing sport is logged
// and skipped; an empty result is a valid outcome.
func (s *Scanner) Scan(ctx context.Context, sports []domain.Sport) ([]domain.ArbitrageOpportunity, error) {
	detectedAt := time.Now()

	var mu sync.Mutex
	var all []domain.ArbitrageOpportunity

	g, gctx := errgroup.WithContext(ctx)
	for _, sport := range sports {
		sport := sport
		g.Go(func() error {
			boards, err := s.source.GetBoards(gctx, sport)
			if err != nil {
				s.logger.Warn("skipping sport, board fetch failed",
					slog.String("sport", string(sport)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			opps := s.scanBoards(boards, detectedAt)
			mu.Lock()
			all = append(all, opps...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("arbitrage: scan: %w", err)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ProfitPct > all[j].ProfitPct
	})
	return all, nil
}

// scanBoards walks every game and market type. A single game can surface
// zero to three opportunities concurrently.
func (s *Scanner) scanBoards(boards []domain.GameBoard, detectedAt time.Time) []domain.ArbitrageOpportunity {
	var opps []domain.ArbitrageOpportunity
	for _, board := range boards {
		for _, market := range []domain.MarketType{domain.MarketMoneyline, domain.MarketSpread, domain.MarketTotal} {
			if opp, ok := s.scanMarket(board, market, detectedAt); ok {
				opps = append(opps, opp)
			}
		}
	}
	return opps
}

// scanMarket runs the full certification pipeline for one game/market.
// Failing any check is a negative filter result, not an error.
func (s *Scanner) scanMarket(board domain.GameBoard, market domain.MarketType, detectedAt time.Time) (domain.ArbitrageOpportunity, bool) {
	sideA, sideB := s.sideLabels(board.Game, market)

	bestA, okA := s.bestQuote(board, market, sideA, detectedAt)
	bestB, okB := s.bestQuote(board, market, sideB, detectedAt)
	if !okA || !okB {
		return domain.ArbitrageOpportunity{}, false
	}

	// Same book on both sides is never an arbitrage.
	if bestA.Bookmaker == bestB.Bookmaker {
		return domain.ArbitrageOpportunity{}, false
	}

	probA := ImpliedProbability(bestA.Price)
	probB := ImpliedProbability(bestB.Price)
	totalProb := probA + probB

	// Core profitability test with rounding slack.
	if totalProb >= 1-s.cfg.ProbabilityTolerance {
		return domain.ArbitrageOpportunity{}, false
	}

	theoreticalPct := (1 - totalProb) * 100
	if theoreticalPct < s.cfg.MinProfit+s.cfg.OddsTolerance {
		return domain.ArbitrageOpportunity{}, false
	}

	stakeA := roundCents(s.cfg.Stake * probA / totalProb)
	stakeB := roundCents(s.cfg.Stake * probB / totalProb)
	totalStake := stakeA + stakeB

	// Recompute the achievable profit on the rounded stakes with real
	// payout conversion; rounding error must not erase the edge.
	returnA := stakeA * payoutMultiplier(bestA.Price)
	returnB := stakeB * payoutMultiplier(bestB.Price)
	actualProfit := min(returnA, returnB) - totalStake

	requiredProfit := s.cfg.Stake * s.cfg.MinProfit / 100 * s.cfg.MinConfidenceForArb
	if actualProfit < requiredProfit {
		return domain.ArbitrageOpportunity{}, false
	}

	theoreticalProfit := theoreticalPct * s.cfg.Stake / 100
	confidence := s.cfg.MinConfidenceForArb * (actualProfit / theoreticalProfit)
	if confidence > 0.99 {
		confidence = 0.99
	}
	if confidence < 0 {
		confidence = 0
	}

	age := int(time.Since(detectedAt).Seconds())
	return domain.ArbitrageOpportunity{
		ID:     uuid.New().String(),
		GameID: board.Game.ID,
		Market: market,
		Legs: [2]domain.Leg{
			{Bookmaker: bestA.Bookmaker, Side: s.legLabel(bestA), Price: bestA.Price, Stake: stakeA},
			{Bookmaker: bestB.Bookmaker, Side: s.legLabel(bestB), Price: bestB.Price, Stake: stakeB},
		},
		TotalStake:       totalStake,
		GuaranteedProfit: roundCents(actualProfit),
		ProfitPct:        actualProfit / totalStake * 100,
		Confidence:       confidence,
		DetectedAt:       detectedAt,
		IsStale:          time.Duration(age)*time.Second > s.cfg.MaxAge,
		AgeSeconds:       age,
	}, true
}

// sideLabels returns the two opposing side names for a market.
func (s *Scanner) sideLabels(game domain.Game, market domain.MarketType) (string, string) {
	if market == domain.MarketTotal {
		return domain.SideOver, domain.SideUnder
	}
	return game.HomeTeam, game.AwayTeam
}

// bestQuote tracks the highest surviving price for one side, rejecting
// quotes that are stale or implausible.
func (s *Scanner) bestQuote(board domain.GameBoard, market domain.MarketType, side string, now time.Time) (domain.MarketQuote, bool) {
	var best domain.MarketQuote
	found := false
	for _, q := range board.QuotesFor(market) {
		if q.Side != side {
			continue
		}
		if !s.plausible(board.Game.Sport, q, now) {
			continue
		}
		if !found || q.Price > best.Price {
			best = q
			found = true
		}
	}
	return best, found
}

// plausible applies the slop filters: stale quotes, zero or extreme
// prices, extreme spreads, and totals outside the sport's band.
func (s *Scanner) plausible(sport domain.Sport, q domain.MarketQuote, now time.Time) bool {
	if !q.LastUpdate.IsZero() && now.Sub(q.LastUpdate) > s.cfg.StaleThreshold {
		return false
	}
	if q.Price == 0 || q.Price < -s.cfg.MaxPriceMagnitude || q.Price > s.cfg.MaxPriceMagnitude {
		return false
	}
	switch q.Market {
	case domain.MarketSpread:
		if q.Point < -s.cfg.MaxSpreadMagnitude || q.Point > s.cfg.MaxSpreadMagnitude {
			return false
		}
	case domain.MarketTotal:
		lo, hi := totalBand(sport)
		if q.Point < lo || q.Point > hi {
			return false
		}
	}
	return true
}

// totalBand is the sport-appropriate plausibility range for totals lines,
// anchored on the sport's neutral total.
func totalBand(sport domain.Sport) (lo, hi float64) {
	t := domain.DefaultTotal(sport)
	return t * 0.45, t * 2.25
}

// legLabel renders a quote's side with its line where the market has one,
// e.g. "Patriots -3.5" or "Over 44.5".
func (s *Scanner) legLabel(q domain.MarketQuote) string {
	switch q.Market {
	case domain.MarketSpread:
		return fmt.Sprintf("%s %+g", q.Side, q.Point)
	case domain.MarketTotal:
		return fmt.Sprintf("%s %g", q.Side, q.Point)
	default:
		return q.Side
	}
}
