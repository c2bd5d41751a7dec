package domain

import (
	"context"
	"time"
)

// OddsCache is the gateway's read-through cache. Implementations return
// ErrNotFound on a miss or an expired entry; concurrent population races
// are last-writer-wins.
type OddsCache interface {
	GetGames(ctx context.Context, key string) ([]Game, error)
	SetGames(ctx context.Context, key string, games []Game, ttl time.Duration) error
	GetBoards(ctx context.Context, key string) ([]GameBoard, error)
	SetBoards(ctx context.Context, key string, boards []GameBoard, ttl time.Duration) error
	GetOdds(ctx context.Context, key string) (OddsSnapshot, error)
	SetOdds(ctx context.Context, key string, odds OddsSnapshot, ttl time.Duration) error
}
