// Package sportsblaze is the REST client for the secondary schedule-only
// provider. It returns games without betting lines; the gateway synthesizes
// neutral odds for them.
package sportsblaze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

// leagues maps sports to the provider's league identifiers. College sports
// are absent: the provider does not carry them, and an empty schedule is a
// valid non-error outcome for those.
var leagues = map[domain.Sport]string{
	domain.SportNFL: "nfl",
	domain.SportNBA: "nba",
	domain.SportNHL: "nhl",
	domain.SportMLB: "mlb",
}

// Supports reports whether the provider carries a schedule for the sport.
func Supports(sport domain.Sport) bool {
	_, ok := leagues[sport]
	return ok
}

// ScheduleGame is one game from the daily schedule endpoint.
type ScheduleGame struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Venue    string `json:"venue"`
	Status   string `json:"status"`
}

// Client is the schedule provider's REST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client parameters.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a schedule provider client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sportsblaze: api key: %w", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sportsblaze.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// DailySchedule returns the league's games for one date (YYYY-MM-DD).
// An unsupported sport yields an empty list, not an error.
func (c *Client) DailySchedule(ctx context.Context, sport domain.Sport, date string) ([]ScheduleGame, error) {
	league, ok := leagues[sport]
	if !ok {
		return nil, nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("date", date)

	u := fmt.Sprintf("%s/%s/schedule/daily?%s", c.baseURL, league, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("sportsblaze: daily schedule %s: %w", sport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sportsblaze: daily schedule %s: %w", sport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sportsblaze: daily schedule %s: %w", sport, err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("sportsblaze: daily schedule %s: %w", sport, domain.ErrRateLimited)
		}
		return nil, fmt.Errorf("sportsblaze: daily schedule %s: http %d", sport, resp.StatusCode)
	}

	var payload struct {
		Games []ScheduleGame `json:"games"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// Some deployments return a bare array.
		var games []ScheduleGame
		if arrErr := json.Unmarshal(body, &games); arrErr == nil {
			return games, nil
		}
		return nil, fmt.Errorf("sportsblaze: decode schedule %s: %w", sport, err)
	}
	return payload.Games, nil
}

// Healthy is a cheap availability probe against today's NFL schedule.
func (c *Client) Healthy(ctx context.Context) error {
	_, err := c.DailySchedule(ctx, domain.SportNFL, time.Now().UTC().Format("2006-01-02"))
	if err != nil && !errors.Is(err, domain.ErrRateLimited) {
		return err
	}
	return nil
}
