// Package memory implements the gateway's odds cache as an in-process TTL
// key/value store with a periodic sweep.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shataken-source/progno/internal/domain"
)

const defaultSweepInterval = 5 * time.Minute

type entry struct {
	payload   any
	expiresAt time.Time
}

// Cache is a TTL key/value store. Reads evict expired entries lazily; the
// sweep loop purges them proactively so memory stays bounded independent
// of read traffic. Last writer for a key wins.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
	logger        *slog.Logger
}

// New creates a Cache. sweepInterval <= 0 uses the 5-minute default.
func New(sweepInterval time.Duration, logger *slog.Logger) *Cache {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	return &Cache{
		entries:       make(map[string]entry),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
		logger:        logger.With(slog.String("component", "memory_cache")),
	}
}

// Start launches the background sweep loop. Stop terminates it.
func (c *Cache) Start() {
	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					c.logger.Debug("swept expired entries", slog.Int("count", n))
				}
			}
		}
	}()
}

// Stop terminates the sweep loop. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the payload for key, or false when the key is absent or
// expired. An expired entry is removed on the way out.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.payload, true
}

// Set stores payload under key until now+ttl.
func (c *Cache) Set(key string, payload any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, expiresAt: time.Now().Add(ttl)}
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep removes every expired entry and returns how many were purged.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	purged := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			purged++
		}
	}
	return purged
}

// Len returns the number of live plus not-yet-swept entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key builds a deterministic cache key from a prefix and parameters.
// Parameters are serialized in sorted order so identical logical queries
// collide regardless of call-site ordering.
func Key(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// The methods below implement domain.OddsCache. The context parameters
// exist because the interface is shared with the Redis implementation; the
// in-process store never blocks.

// GetGames implements domain.OddsCache.
func (c *Cache) GetGames(_ context.Context, key string) ([]domain.Game, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	games, ok := v.([]domain.Game)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return games, nil
}

// SetGames implements domain.OddsCache.
func (c *Cache) SetGames(_ context.Context, key string, games []domain.Game, ttl time.Duration) error {
	c.Set(key, games, ttl)
	return nil
}

// GetBoards implements domain.OddsCache.
func (c *Cache) GetBoards(_ context.Context, key string) ([]domain.GameBoard, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	boards, ok := v.([]domain.GameBoard)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return boards, nil
}

// SetBoards implements domain.OddsCache.
func (c *Cache) SetBoards(_ context.Context, key string, boards []domain.GameBoard, ttl time.Duration) error {
	c.Set(key, boards, ttl)
	return nil
}

// GetOdds implements domain.OddsCache.
func (c *Cache) GetOdds(_ context.Context, key string) (domain.OddsSnapshot, error) {
	v, ok := c.Get(key)
	if !ok {
		return domain.OddsSnapshot{}, domain.ErrNotFound
	}
	odds, ok := v.(domain.OddsSnapshot)
	if !ok {
		return domain.OddsSnapshot{}, domain.ErrNotFound
	}
	return odds, nil
}

// SetOdds implements domain.OddsCache.
func (c *Cache) SetOdds(_ context.Context, key string, odds domain.OddsSnapshot, ttl time.Duration) error {
	c.Set(key, odds, ttl)
	return nil
}

// Compile-time interface check.
var _ domain.OddsCache = (*Cache)(nil)
