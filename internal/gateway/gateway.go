// Package gateway fetches schedules, odds, and scores from unreliable
// third-party providers behind a cache and per-dependency circuit breakers,
// falling back to a schedule-only provider with synthesized neutral odds
// when the primary is down.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shataken-source/progno/internal/breaker"
	"github.com/shataken-source/progno/internal/cache/memory"
	"github.com/shataken-source/progno/internal/domain"
	"github.com/shataken-source/progno/internal/provider/oddsapi"
	"github.com/shataken-source/progno/internal/provider/sportsblaze"
)

// Breaker names for the gateway's upstream dependencies.
const (
	BreakerOddsAPI     = "oddsapi"
	BreakerSportsBlaze = "sportsblaze"
)

// Config holds gateway cache TTLs and probe bounds.
type Config struct {
	GamesTTL      time.Duration // normalized game lists
	OddsTTL       time.Duration // per-game odds lookups
	BoardsTTL     time.Duration // raw per-bookmaker boards for the scanner
	ScoresDays    int           // how far back the scores endpoint reaches
	HealthTimeout time.Duration // bounded health probe
}

// DefaultConfig mirrors production cache behavior: games 60s, per-game
// odds 30s, boards 10m, health probe 5s.
func DefaultConfig() Config {
	return Config{
		GamesTTL:      60 * time.Second,
		OddsTTL:       30 * time.Second,
		BoardsTTL:     10 * time.Minute,
		ScoresDays:    3,
		HealthTimeout: 5 * time.Second,
	}
}

// Gateway is the odds gateway. Secondary may be nil when no fallback key
// is configured; the fallback path then degrades to an empty result.
type Gateway struct {
	primary   *oddsapi.Client
	secondary *sportsblaze.Client
	cache     domain.OddsCache
	breakers  *breaker.Registry
	cfg       Config
	logger    *slog.Logger
}

// New creates a Gateway.
func New(primary *oddsapi.Client, secondary *sportsblaze.Client, cache domain.OddsCache, breakers *breaker.Registry, cfg Config, logger *slog.Logger) *Gateway {
	if cfg.GamesTTL <= 0 {
		cfg = DefaultConfig()
	}
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		cache:     cache,
		breakers:  breakers,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "gateway")),
	}
}

// GetGames returns the normalized game list for a sport and date. Cache
// first, then the primary provider through its breaker, then the fallback
// schedule provider with neutral odds. An empty list is a valid non-error
// outcome for sports the fallback does not carry.
func (g *Gateway) GetGames(ctx context.Context, sport domain.Sport, date string) ([]domain.Game, error) {
	key := memory.Key("games", map[string]string{"sport": string(sport), "date": date})
	if games, err := g.cache.GetGames(ctx, key); err == nil {
		return games, nil
	}

	boards, err := g.fetchBoards(ctx, sport)
	if err == nil {
		games := make([]domain.Game, len(boards))
		for i, b := range boards {
			games[i] = b.Game
		}
		if cerr := g.cache.SetGames(ctx, key, games, g.cfg.GamesTTL); cerr != nil {
			g.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", cerr.Error()))
		}
		return games, nil
	}

	g.logger.Warn("primary odds provider failed, trying schedule fallback",
		slog.String("sport", string(sport)),
		slog.String("error", err.Error()),
	)
	return g.fallbackGames(ctx, key, sport, date)
}

// GetBoards returns per-bookmaker market quotes for the scanner. Boards
// come only from the primary provider; there is no meaningful fallback for
// cross-bookmaker pricing.
func (g *Gateway) GetBoards(ctx context.Context, sport domain.Sport) ([]domain.GameBoard, error) {
	key := memory.Key("boards", map[string]string{"sport": string(sport)})
	if boards, err := g.cache.GetBoards(ctx, key); err == nil {
		return boards, nil
	}

	boards, err := g.fetchBoards(ctx, sport)
	if err != nil {
		return nil, err
	}
	if cerr := g.cache.SetBoards(ctx, key, boards, g.cfg.BoardsTTL); cerr != nil {
		g.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", cerr.Error()))
	}
	return boards, nil
}

func (g *Gateway) fetchBoards(ctx context.Context, sport domain.Sport) ([]domain.GameBoard, error) {
	sportKey, ok := domain.ProviderSportKeys[sport]
	if !ok {
		return nil, fmt.Errorf("gateway: unsupported sport %q", sport)
	}

	events, err := breaker.Do(ctx, g.breakers.Get(BreakerOddsAPI), func(ctx context.Context) ([]oddsapi.Event, error) {
		return g.primary.Odds(ctx, sportKey)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		return nil, fmt.Errorf("gateway: %w: %w", domain.ErrUnavailable, err)
	}

	boards := make([]domain.GameBoard, 0, len(events))
	for _, ev := range events {
		if ev.HomeTeam == "" || ev.AwayTeam == "" {
			continue // malformed record: skipped, not fatal for the batch
		}
		boards = append(boards, normalizeEvent(ev, sport))
	}
	return boards, nil
}

func (g *Gateway) fallbackGames(ctx context.Context, key string, sport domain.Sport, date string) ([]domain.Game, error) {
	if g.secondary == nil || !sportsblaze.Supports(sport) {
		g.logger.Warn("schedule fallback unavailable",
			slog.String("sport", string(sport)),
			slog.Bool("configured", g.secondary != nil),
		)
		return []domain.Game{}, nil
	}

	schedule, err := breaker.Do(ctx, g.breakers.Get(BreakerSportsBlaze), func(ctx context.Context) ([]sportsblaze.ScheduleGame, error) {
		return g.secondary.DailySchedule(ctx, sport, date)
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: fallback: %w: %w", domain.ErrUnavailable, err)
	}

	games := make([]domain.Game, 0, len(schedule))
	for _, sg := range schedule {
		if sg.HomeTeam == "" || sg.AwayTeam == "" {
			continue
		}
		games = append(games, normalizeSchedule(sg, sport))
	}
	if cerr := g.cache.SetGames(ctx, key, games, g.cfg.GamesTTL); cerr != nil {
		g.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", cerr.Error()))
	}
	return games, nil
}

// GetOdds returns the consensus odds snapshot for one game by its ID. The
// sport is recovered from the ID prefix. Returns domain.ErrNotFound when
// the game is not on today's board.
func (g *Gateway) GetOdds(ctx context.Context, gameID string) (domain.OddsSnapshot, error) {
	sport := sportFromGameID(gameID)
	if sport == "" {
		return domain.OddsSnapshot{}, fmt.Errorf("gateway: invalid game id %q", gameID)
	}

	key := memory.Key("odds", map[string]string{"game": gameID})
	if odds, err := g.cache.GetOdds(ctx, key); err == nil {
		return odds, nil
	}

	games, err := g.GetGames(ctx, sport, time.Now().UTC().Format("2006-01-02"))
	if err != nil {
		return domain.OddsSnapshot{}, err
	}
	for _, game := range games {
		if game.ID == gameID {
			if cerr := g.cache.SetOdds(ctx, key, game.Odds, g.cfg.OddsTTL); cerr != nil {
				g.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", cerr.Error()))
			}
			return game.Odds, nil
		}
	}
	return domain.OddsSnapshot{}, domain.ErrNotFound
}

// GetScores returns recent games with live or final scores for grading.
// Records with missing or unparsable score lines are skipped.
func (g *Gateway) GetScores(ctx context.Context, sport domain.Sport) ([]domain.Game, error) {
	sportKey, ok := domain.ProviderSportKeys[sport]
	if !ok {
		return nil, fmt.Errorf("gateway: unsupported sport %q", sport)
	}

	events, err := breaker.Do(ctx, g.breakers.Get(BreakerOddsAPI), func(ctx context.Context) ([]oddsapi.ScoreEvent, error) {
		return g.primary.Scores(ctx, sportKey, g.cfg.ScoresDays)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		return nil, fmt.Errorf("gateway: %w: %w", domain.ErrUnavailable, err)
	}

	games := make([]domain.Game, 0, len(events))
	skipped := 0
	for _, ev := range events {
		game, ok := normalizeScore(ev, sport)
		if !ok {
			skipped++
			continue
		}
		games = append(games, game)
	}
	if skipped > 0 {
		g.logger.Debug("skipped malformed score records",
			slog.String("sport", string(sport)),
			slog.Int("count", skipped),
		)
	}
	return games, nil
}

// CheckHealth probes the primary provider within a short bounded window
// and classifies it healthy, degraded (no data), or down (auth failure,
// timeout, network error). It never returns an error.
func (g *Gateway) CheckHealth(ctx context.Context) domain.ProviderHealth {
	start := time.Now()
	health := domain.ProviderHealth{
		Name:        "oddsapi",
		LastChecked: start,
	}

	probeCtx, cancel := context.WithTimeout(ctx, g.cfg.HealthTimeout)
	defer cancel()

	events, err := g.primary.Odds(probeCtx, domain.ProviderSportKeys[domain.SportNFL])
	health.ResponseTime = time.Since(start)

	switch {
	case err == nil && len(events) > 0:
		health.Status = domain.HealthHealthy
	case err == nil:
		health.Status = domain.HealthDegraded
		health.Err = "no data returned"
	case errors.Is(err, oddsapi.ErrAuth):
		health.Status = domain.HealthDown
		health.Err = "authentication failed"
	case errors.Is(err, context.DeadlineExceeded):
		health.Status = domain.HealthDown
		health.Err = fmt.Sprintf("request timeout (>%s)", g.cfg.HealthTimeout)
	case errors.Is(err, domain.ErrRateLimited):
		health.Status = domain.HealthDegraded
		health.Err = "rate limited"
	default:
		health.Status = domain.HealthDown
		health.Err = err.Error()
	}
	return health
}

// Breakers exposes breaker snapshots for diagnostics.
func (g *Gateway) Breakers() []breaker.Snapshot {
	return g.breakers.Snapshots()
}

func sportFromGameID(gameID string) domain.Sport {
	idx := strings.Index(gameID, "-")
	if idx <= 0 {
		return ""
	}
	sport := domain.Sport(gameID[:idx])
	if _, ok := domain.ProviderSportKeys[sport]; !ok {
		return ""
	}
	return sport
}
