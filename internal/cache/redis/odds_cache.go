package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shataken-source/progno/internal/domain"
)

// OddsCache implements domain.OddsCache with JSON-serialized payloads.
//
// Key schema:
//
//	odds:{key} - string value containing JSON, TTL per Set call
type OddsCache struct {
	rdb *redis.Client
}

// NewOddsCache creates an OddsCache backed by the given Client.
func NewOddsCache(c *Client) *OddsCache {
	return &OddsCache{rdb: c.Underlying()}
}

func oddsKey(key string) string { return "odds:" + key }

func (oc *OddsCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", key, err)
	}
	if err := oc.rdb.Set(ctx, oddsKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (oc *OddsCache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := oc.rdb.Get(ctx, oddsKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return nil
}

// GetGames implements domain.OddsCache.
func (oc *OddsCache) GetGames(ctx context.Context, key string) ([]domain.Game, error) {
	var games []domain.Game
	if err := oc.getJSON(ctx, key, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// SetGames implements domain.OddsCache.
func (oc *OddsCache) SetGames(ctx context.Context, key string, games []domain.Game, ttl time.Duration) error {
	return oc.setJSON(ctx, key, games, ttl)
}

// GetBoards implements domain.OddsCache.
func (oc *OddsCache) GetBoards(ctx context.Context, key string) ([]domain.GameBoard, error) {
	var boards []domain.GameBoard
	if err := oc.getJSON(ctx, key, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// SetBoards implements domain.OddsCache.
func (oc *OddsCache) SetBoards(ctx context.Context, key string, boards []domain.GameBoard, ttl time.Duration) error {
	return oc.setJSON(ctx, key, boards, ttl)
}

// GetOdds implements domain.OddsCache.
func (oc *OddsCache) GetOdds(ctx context.Context, key string) (domain.OddsSnapshot, error) {
	var odds domain.OddsSnapshot
	if err := oc.getJSON(ctx, key, &odds); err != nil {
		return domain.OddsSnapshot{}, err
	}
	return odds, nil
}

// SetOdds implements domain.OddsCache.
func (oc *OddsCache) SetOdds(ctx context.Context, key string, odds domain.OddsSnapshot, ttl time.Duration) error {
	return oc.setJSON(ctx, key, odds, ttl)
}

// Compile-time interface check.
var _ domain.OddsCache = (*OddsCache)(nil)
