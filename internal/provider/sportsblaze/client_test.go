package sportsblaze

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shataken-source/progno/internal/domain"
)

func TestSupports(t *testing.T) {
	tests := []struct {
		sport domain.Sport
		want  bool
	}{
		{domain.SportNFL, true},
		{domain.SportNBA, true},
		{domain.SportNHL, true},
		{domain.SportMLB, true},
		{domain.SportCFB, false},
		{domain.SportCBB, false},
	}
	for _, tt := range tests {
		if got := Supports(tt.sport); got != tt.want {
			t.Errorf("Supports(%s) = %v, want %v", tt.sport, got, tt.want)
		}
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("got %v, want ErrNotConfigured", err)
	}
}

func TestDailyScheduleDecodesWrappedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nhl/schedule/daily" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("date") != "2026-09-01" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"games": [
			{"id": "s1", "date": "2026-09-01T23:00:00Z", "home_team": "Bruins", "away_team": "Rangers", "venue": "TD Garden", "status": "scheduled"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	games, err := c.DailySchedule(context.Background(), domain.SportNHL, "2026-09-01")
	if err != nil {
		t.Fatalf("DailySchedule: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	if games[0].HomeTeam != "Bruins" || games[0].Venue != "TD Garden" {
		t.Errorf("game = %+v", games[0])
	}
}

func TestDailyScheduleDecodesBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id": "s1", "home_team": "Chiefs", "away_team": "Bills"}]`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	games, err := c.DailySchedule(context.Background(), domain.SportNFL, "2026-09-01")
	if err != nil {
		t.Fatalf("DailySchedule: %v", err)
	}
	if len(games) != 1 || games[0].HomeTeam != "Chiefs" {
		t.Errorf("games = %+v", games)
	}
}

func TestDailyScheduleUnsupportedSportIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request made for unsupported sport")
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	games, err := c.DailySchedule(context.Background(), domain.SportCFB, "2026-09-01")
	if err != nil {
		t.Fatalf("DailySchedule: %v", err)
	}
	if games != nil {
		t.Errorf("games = %+v, want nil", games)
	}
}

func TestDailyScheduleRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.DailySchedule(context.Background(), domain.SportNBA, "2026-09-01"); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}
