// Package oddsapi is the REST client for the primary odds provider.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

// ErrAuth marks a 401/403 from the provider: the API key is missing or
// revoked. Health checks classify it as "down".
var ErrAuth = errors.New("oddsapi: authentication failed")

// Client is the REST client for the primary odds provider.
type Client struct {
	baseURL    string
	apiKey     string
	regions    string
	markets    string
	httpClient *http.Client
}

// Config holds client parameters.
type Config struct {
	BaseURL string
	APIKey  string
	Regions string // e.g. "us"
	Markets string // e.g. "h2h,spreads,totals"
	Timeout time.Duration
}

// NewClient creates a provider client. It returns domain.ErrNotConfigured
// when the API key is empty; a missing credential is fatal for the run,
// never silently degraded.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oddsapi: api key: %w", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}
	if cfg.Markets == "" {
		cfg.Markets = "h2h,spreads,totals"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		regions: cfg.Regions,
		markets: cfg.Markets,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Odds returns every upcoming event for the sport with full
// bookmaker/market/outcome detail, priced in American odds.
func (c *Client) Odds(ctx context.Context, sportKey string) ([]Event, error) {
	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", c.markets)
	params.Set("oddsFormat", "american")

	body, err := c.get(ctx, fmt.Sprintf("/sports/%s/odds", url.PathEscape(sportKey)), params)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: get odds %s: %w", sportKey, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode odds %s: %w", sportKey, err)
	}
	return events, nil
}

// Scores returns recent and live score lines for the sport. daysFrom bounds
// how far back completed games are included.
func (c *Client) Scores(ctx context.Context, sportKey string, daysFrom int) ([]ScoreEvent, error) {
	params := url.Values{}
	if daysFrom > 0 {
		params.Set("daysFrom", strconv.Itoa(daysFrom))
	}

	body, err := c.get(ctx, fmt.Sprintf("/sports/%s/scores", url.PathEscape(sportKey)), params)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: get scores %s: %w", sportKey, err)
	}

	var events []ScoreEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode scores %s: %w", sportKey, err)
	}
	return events, nil
}

// HistoricalOdds returns the odds board as it stood at the given instant.
func (c *Client) HistoricalOdds(ctx context.Context, sportKey string, at time.Time) ([]Event, error) {
	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", c.markets)
	params.Set("oddsFormat", "american")
	params.Set("date", at.UTC().Format(time.RFC3339))

	body, err := c.get(ctx, fmt.Sprintf("/historical/sports/%s/odds", url.PathEscape(sportKey)), params)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: get historical odds %s: %w", sportKey, err)
	}

	// The historical endpoint wraps the event list in a snapshot envelope.
	var resp struct {
		Timestamp string  `json:"timestamp"`
		Data      []Event `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("oddsapi: decode historical odds %s: %w", sportKey, err)
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	default:
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
}
