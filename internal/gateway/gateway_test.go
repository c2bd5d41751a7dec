package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shataken-source/progno/internal/breaker"
	"github.com/shataken-source/progno/internal/cache/memory"
	"github.com/shataken-source/progno/internal/domain"
	"github.com/shataken-source/progno/internal/provider/oddsapi"
	"github.com/shataken-source/progno/internal/provider/sportsblaze"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(t *testing.T, primaryURL string, secondary *sportsblaze.Client) *Gateway {
	t.Helper()
	primary, err := oddsapi.NewClient(oddsapi.Config{BaseURL: primaryURL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("oddsapi client: %v", err)
	}
	cache := memory.New(time.Minute, testLogger())
	registry := breaker.NewRegistry(breaker.DefaultSettings(), nil)
	return New(primary, secondary, cache, registry, DefaultConfig(), testLogger())
}

const oddsBody = `[
	{
		"id": "ev1",
		"sport_title": "NFL",
		"commence_time": "2026-09-06T17:00:00Z",
		"home_team": "Patriots",
		"away_team": "Jets",
		"bookmakers": [
			{
				"key": "draftkings",
				"title": "DraftKings",
				"markets": [
					{"key": "h2h", "outcomes": [
						{"name": "Patriots", "price": -140},
						{"name": "Jets", "price": 120}
					]},
					{"key": "totals", "outcomes": [
						{"name": "Over", "price": -110, "point": 44.5},
						{"name": "Under", "price": -110, "point": 44.5}
					]}
				]
			},
			{
				"key": "fanduel",
				"title": "FanDuel",
				"markets": [
					{"key": "h2h", "outcomes": [
						{"name": "Patriots", "price": -160},
						{"name": "Jets", "price": 140}
					]},
					{"key": "spreads", "outcomes": [
						{"name": "Patriots", "price": -110, "point": -3.5},
						{"name": "Jets", "price": -110, "point": 3.5}
					]}
				]
			}
		]
	}
]`

func TestGetBoardsNormalizesQuotesAndConsensus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oddsBody))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL, nil)
	boards, err := g.GetBoards(context.Background(), domain.SportNFL)
	if err != nil {
		t.Fatalf("GetBoards: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("got %d boards, want 1", len(boards))
	}

	board := boards[0]
	if board.Game.ID != "nfl-ev1" {
		t.Errorf("game ID = %q, want nfl-ev1", board.Game.ID)
	}
	if board.Game.HomeTeam != "Patriots" || board.Game.League != "NFL" {
		t.Errorf("game = %+v", board.Game)
	}

	// 4 moneyline, 2 spread, 2 total quotes across the two books.
	if got := len(board.QuotesFor(domain.MarketMoneyline)); got != 4 {
		t.Errorf("moneyline quotes = %d, want 4", got)
	}
	if got := len(board.QuotesFor(domain.MarketSpread)); got != 2 {
		t.Errorf("spread quotes = %d, want 2", got)
	}
	if got := len(board.QuotesFor(domain.MarketTotal)); got != 2 {
		t.Errorf("total quotes = %d, want 2", got)
	}

	// Consensus averages the two books: (-140 + -160)/2 and (120+140)/2.
	odds := board.Game.Odds
	if odds.Bookmaker != "consensus" {
		t.Errorf("consensus bookmaker = %q", odds.Bookmaker)
	}
	if math.Abs(odds.MoneylineHome-(-150)) > 1e-9 {
		t.Errorf("consensus home ml = %g, want -150", odds.MoneylineHome)
	}
	if math.Abs(odds.MoneylineAway-130) > 1e-9 {
		t.Errorf("consensus away ml = %g, want 130", odds.MoneylineAway)
	}
	if odds.Spread != -3.5 || odds.Total != 44.5 {
		t.Errorf("consensus spread/total = %g/%g", odds.Spread, odds.Total)
	}
}

func TestGetBoardsServedFromCache(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.Write([]byte(oddsBody))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL, nil)
	ctx := context.Background()
	if _, err := g.GetBoards(ctx, domain.SportNFL); err != nil {
		t.Fatalf("first GetBoards: %v", err)
	}
	if _, err := g.GetBoards(ctx, domain.SportNFL); err != nil {
		t.Fatalf("second GetBoards: %v", err)
	}
	if requests != 1 {
		t.Errorf("upstream requests = %d, want 1", requests)
	}
}

func TestGetGamesFallsBackToScheduleWithNeutralOdds(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"games": [{"id": "s1", "date": "2026-09-01T20:00:00Z", "home_team": "Chiefs", "away_team": "Bills"}]}`))
	}))
	defer fallback.Close()

	secondary, err := sportsblaze.NewClient(sportsblaze.Config{BaseURL: fallback.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("sportsblaze client: %v", err)
	}

	g := newTestGateway(t, primary.URL, secondary)
	games, err := g.GetGames(context.Background(), domain.SportNFL, "2026-09-01")
	if err != nil {
		t.Fatalf("GetGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}

	game := games[0]
	if game.ID != "nfl-s1" || game.HomeTeam != "Chiefs" {
		t.Errorf("game = %+v", game)
	}
	if game.Venue != "TBD" {
		t.Errorf("venue = %q, want TBD", game.Venue)
	}
	if game.Odds.MoneylineHome != -110 || game.Odds.MoneylineAway != -110 {
		t.Errorf("neutral moneyline = %g/%g, want -110/-110", game.Odds.MoneylineHome, game.Odds.MoneylineAway)
	}
	if game.Odds.Total != domain.DefaultTotal(domain.SportNFL) {
		t.Errorf("neutral total = %g, want %g", game.Odds.Total, domain.DefaultTotal(domain.SportNFL))
	}
}

func TestGetGamesEmptyWhenNoFallbackConfigured(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	g := newTestGateway(t, primary.URL, nil)
	games, err := g.GetGames(context.Background(), domain.SportNFL, "2026-09-01")
	if err != nil {
		t.Fatalf("GetGames: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("got %d games, want 0", len(games))
	}
}

func TestGetGamesCollegeSportsSkipFallback(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("fallback called for a sport it does not carry")
	}))
	defer fallback.Close()

	secondary, _ := sportsblaze.NewClient(sportsblaze.Config{BaseURL: fallback.URL, APIKey: "k"})
	g := newTestGateway(t, primary.URL, secondary)

	games, err := g.GetGames(context.Background(), domain.SportCFB, "2026-09-01")
	if err != nil {
		t.Fatalf("GetGames: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("got %d games, want 0", len(games))
	}
}

func TestGetOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(oddsBody))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL, nil)
	ctx := context.Background()

	odds, err := g.GetOdds(ctx, "nfl-ev1")
	if err != nil {
		t.Fatalf("GetOdds: %v", err)
	}
	if math.Abs(odds.MoneylineHome-(-150)) > 1e-9 {
		t.Errorf("home ml = %g, want -150", odds.MoneylineHome)
	}

	if _, err := g.GetOdds(ctx, "nfl-unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown game: got %v, want ErrNotFound", err)
	}
	if _, err := g.GetOdds(ctx, "garbage"); err == nil {
		t.Error("malformed game id accepted")
	}
}

func TestGetScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/americanfootball_nfl/scores" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{
				"id": "g1", "home_team": "Patriots", "away_team": "Jets", "completed": true,
				"scores": [{"name": "Patriots", "score": "27"}, {"name": "Jets", "score": "20"}]
			},
			{
				"id": "g2", "home_team": "Chiefs", "away_team": "Bills", "completed": true,
				"scores": [{"name": "Chiefs", "score": "n/a"}, {"name": "Bills", "score": "14"}]
			},
			{
				"id": "g3", "home_team": "Eagles", "away_team": "Giants", "completed": false,
				"scores": []
			}
		]`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL, nil)
	games, err := g.GetScores(context.Background(), domain.SportNFL)
	if err != nil {
		t.Fatalf("GetScores: %v", err)
	}

	// g2's unparsable score line is dropped; g3 is still upcoming and
	// passes through without a score.
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}
	if games[0].ID != "nfl-g1" || !games[0].Completed {
		t.Errorf("graded game = %+v", games[0])
	}
	if games[0].Score == nil || games[0].Score.Home != 27 || games[0].Score.Away != 20 {
		t.Errorf("score = %+v", games[0].Score)
	}
	if games[1].Score != nil || games[1].Completed {
		t.Errorf("upcoming game = %+v", games[1])
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    domain.ProviderHealthStatus
	}{
		{
			name: "healthy",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(oddsBody))
			},
			want: domain.HealthHealthy,
		},
		{
			name: "degraded on empty board",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`[]`))
			},
			want: domain.HealthDegraded,
		},
		{
			name: "degraded on rate limit",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: domain.HealthDegraded,
		},
		{
			name: "down on auth failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: domain.HealthDown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := newTestGateway(t, srv.URL, nil)
			health := g.CheckHealth(context.Background())
			if health.Status != tt.want {
				t.Errorf("status = %s (%s), want %s", health.Status, health.Err, tt.want)
			}
			if health.Name != "oddsapi" {
				t.Errorf("name = %q", health.Name)
			}
		})
	}
}

func TestSpreadToMoneyline(t *testing.T) {
	tests := []struct {
		spread     float64
		home, away float64
	}{
		{-16.5, -1200, 800},
		{-7, -300, 250},
		{-3, -150, 130},
		{0, -110, 110},
		{3, -110, 110},
		{7.5, 250, -300},
	}
	for _, tt := range tests {
		home, away := spreadToMoneyline(tt.spread)
		if home != tt.home || away != tt.away {
			t.Errorf("spreadToMoneyline(%g) = %g/%g, want %g/%g", tt.spread, home, away, tt.home, tt.away)
		}
	}
}

func TestMirrorPrice(t *testing.T) {
	if got := mirrorPrice(-150); got != 150 {
		t.Errorf("mirrorPrice(-150) = %g, want 150", got)
	}
	if got := mirrorPrice(130); got != -130 {
		t.Errorf("mirrorPrice(130) = %g, want -130", got)
	}
}

func TestSportFromGameID(t *testing.T) {
	tests := []struct {
		id   string
		want domain.Sport
	}{
		{"nfl-ev1", domain.SportNFL},
		{"cbb-duke-unc", domain.SportCBB},
		{"soccer-ev1", ""},
		{"noseparator", ""},
		{"-leading", ""},
	}
	for _, tt := range tests {
		if got := sportFromGameID(tt.id); got != tt.want {
			t.Errorf("sportFromGameID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestConsensusFillsMissingMoneylineFromSpread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{
				"id": "ev2", "home_team": "Eagles", "away_team": "Giants",
				"bookmakers": [
					{"key": "dk", "title": "DraftKings", "markets": [
						{"key": "spreads", "outcomes": [
							{"name": "Eagles", "price": -110, "point": -7.5},
							{"name": "Giants", "price": -110, "point": 7.5}
						]}
					]}
				]
			}
		]`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL, nil)
	boards, err := g.GetBoards(context.Background(), domain.SportNFL)
	if err != nil {
		t.Fatalf("GetBoards: %v", err)
	}
	odds := boards[0].Game.Odds
	if odds.MoneylineHome != -300 || odds.MoneylineAway != 250 {
		t.Errorf("derived moneyline = %g/%g, want -300/250", odds.MoneylineHome, odds.MoneylineAway)
	}
	if odds.Total != domain.DefaultTotal(domain.SportNFL) {
		t.Errorf("total = %g, want neutral default", odds.Total)
	}
}
