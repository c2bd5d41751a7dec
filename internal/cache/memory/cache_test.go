package memory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

func newTestCache() *Cache {
	return New(time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache()
	c.Set("k", "payload", time.Minute)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("Get missed a freshly set key")
	}
	if v != "payload" {
		t.Errorf("Get returned %v, want payload", v)
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	c := newTestCache()
	c.Set("k", 1, 20*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get hit an expired entry")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after lazy eviction, want 0", c.Len())
	}
}

func TestLastWriterWins(t *testing.T) {
	c := newTestCache()
	c.Set("k", "old", time.Minute)
	c.Set("k", "new", time.Minute)

	v, _ := c.Get("k")
	if v != "new" {
		t.Errorf("Get returned %v, want new", v)
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache()
	c.Set("k", 1, time.Minute)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Get hit a deleted key")
	}
}

func TestSweepPurgesOnlyExpired(t *testing.T) {
	c := newTestCache()
	c.Set("stale1", 1, 10*time.Millisecond)
	c.Set("stale2", 2, 10*time.Millisecond)
	c.Set("fresh", 3, time.Minute)

	time.Sleep(30 * time.Millisecond)
	if n := c.Sweep(); n != 2 {
		t.Errorf("Sweep purged %d entries, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("sweep evicted a live entry")
	}
}

func TestKeyDeterministicOrdering(t *testing.T) {
	a := Key("odds", map[string]string{"sport": "nfl", "markets": "spreads", "region": "us"})
	b := Key("odds", map[string]string{"region": "us", "markets": "spreads", "sport": "nfl"})
	if a != b {
		t.Errorf("same params produced different keys: %q vs %q", a, b)
	}

	want := "odds:markets=spreads:region=us:sport=nfl"
	if a != want {
		t.Errorf("Key = %q, want %q", a, want)
	}
	if got := Key("games", nil); got != "games" {
		t.Errorf("Key with no params = %q, want games", got)
	}
}

func TestTypedAccessors(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	if _, err := c.GetGames(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetGames on missing key: got %v, want ErrNotFound", err)
	}

	games := []domain.Game{{ID: "g1", Sport: domain.SportNFL, HomeTeam: "Chiefs", AwayTeam: "Bills"}}
	if err := c.SetGames(ctx, "games:nfl", games, time.Minute); err != nil {
		t.Fatalf("SetGames: %v", err)
	}
	got, err := c.GetGames(ctx, "games:nfl")
	if err != nil {
		t.Fatalf("GetGames: %v", err)
	}
	if len(got) != 1 || got[0].ID != "g1" {
		t.Errorf("GetGames returned %+v", got)
	}

	// A key holding the wrong type reads as a miss, not a panic.
	c.Set("games:nfl", "not games", time.Minute)
	if _, err := c.GetGames(ctx, "games:nfl"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetGames on mistyped key: got %v, want ErrNotFound", err)
	}

	boards := []domain.GameBoard{{Game: domain.Game{ID: "g2"}}}
	if err := c.SetBoards(ctx, "boards:nba", boards, time.Minute); err != nil {
		t.Fatalf("SetBoards: %v", err)
	}
	gotBoards, err := c.GetBoards(ctx, "boards:nba")
	if err != nil {
		t.Fatalf("GetBoards: %v", err)
	}
	if len(gotBoards) != 1 || gotBoards[0].Game.ID != "g2" {
		t.Errorf("GetBoards returned %+v", gotBoards)
	}
}

func TestStartStopSweepLoop(t *testing.T) {
	c := New(10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Start()
	c.Set("k", 1, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	if c.Len() != 0 {
		t.Errorf("Len = %d after background sweep, want 0", c.Len())
	}

	c.Stop()
	c.Stop() // idempotent
}
