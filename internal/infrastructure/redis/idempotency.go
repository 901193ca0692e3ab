// Package redis stores idempotency records for client retries.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
)

var _ port.IdempotencyGuard = (*IdempotencyGuard)(nil)

const pendingMarker = "\x00pending"

// abortScript deletes a key only while it still holds the pending marker, so
// an abort never erases a completed result.
var abortScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds the Redis connection and retention settings.
type Config struct {
	Addr        string
	Password    string
	Prefix      string
	DB          int
	DialTimeout time.Duration
	Timeout     time.Duration
	// PendingTTL bounds how long a crashed request can block its key.
	PendingTTL time.Duration
	// ResultTTL is how long a completed key replays its result.
	ResultTTL time.Duration
}

// IdempotencyGuard implements port.IdempotencyGuard on Redis.
type IdempotencyGuard struct {
	client     goredis.UniversalClient
	prefix     string
	pendingTTL time.Duration
	resultTTL  time.Duration
}

// NewClient opens a Redis connection and pings it.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewIdempotencyGuard wraps client. Zero TTLs default to one minute pending
// and one day for results.
func NewIdempotencyGuard(client goredis.UniversalClient, cfg Config) *IdempotencyGuard {
	g := &IdempotencyGuard{
		client:     client,
		prefix:     cfg.Prefix,
		pendingTTL: cfg.PendingTTL,
		resultTTL:  cfg.ResultTTL,
	}
	if g.prefix == "" {
		g.prefix = "coopledger:idem:"
	}
	if g.pendingTTL <= 0 {
		g.pendingTTL = time.Minute
	}
	if g.resultTTL <= 0 {
		g.resultTTL = 24 * time.Hour
	}
	return g
}

func (g *IdempotencyGuard) Begin(ctx context.Context, key string) (string, bool, error) {
	k := g.key(key)
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := g.client.SetNX(ctx, k, pendingMarker, g.pendingTTL).Result()
		if err != nil {
			return "", false, fmt.Errorf("redis: claim %s: %w", key, err)
		}
		if claimed {
			return "", true, nil
		}

		value, err := g.client.Get(ctx, k).Result()
		if errors.Is(err, goredis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("redis: read %s: %w", key, err)
		}
		if value == pendingMarker {
			return "", false, fmt.Errorf("%w: request %s is still in progress", model.ErrDuplicateRequest, key)
		}
		return value, false, nil
	}
	return "", false, fmt.Errorf("%w: request %s is contended", model.ErrDuplicateRequest, key)
}

func (g *IdempotencyGuard) Finish(ctx context.Context, key, resultID string) error {
	if err := g.client.Set(ctx, g.key(key), resultID, g.resultTTL).Err(); err != nil {
		return fmt.Errorf("redis: store result for %s: %w", key, err)
	}
	return nil
}

func (g *IdempotencyGuard) Abort(ctx context.Context, key string) error {
	if err := abortScript.Run(ctx, g.client, []string{g.key(key)}, pendingMarker).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis: release %s: %w", key, err)
	}
	return nil
}

func (g *IdempotencyGuard) key(key string) string {
	return g.prefix + key
}
