// Package cache keeps per-principal loan summaries in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"loan-ledger/internal/domain/loan"

	"github.com/redis/go-redis/v9"
)

const (
	summaryKeyPrefix    = "loan-ledger:summary:"
	generationKeyPrefix = "loan-ledger:summary-gen:"

	// generationTTL outlives any summary entry, and both Set and Invalidate
	// push it forward, so an expired counter can never make an old entry
	// match again.
	generationTTL = 24 * time.Hour
)

// redisCmds is the part of redis.Cmdable the summary cache uses.
type redisCmds interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ redisCmds = (*redis.Client)(nil)

// entry is the stored form of a summary, stamped with the generation it was
// computed under.
type entry struct {
	Generation loan.Generation `json:"generation"`
	Summary    loan.Summary    `json:"summary"`
}

type RedisSummaryCache struct {
	client redisCmds
	ttl    time.Duration
	logger *slog.Logger
}

var _ loan.SummaryCache = (*RedisSummaryCache)(nil)

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSummaryCache {
	return newRedisSummaryCache(client, ttl, logger)
}

func newRedisSummaryCache(client redisCmds, ttl time.Duration, logger *slog.Logger) *RedisSummaryCache {
	if ttl <= 0 || ttl > generationTTL {
		ttl = 30 * time.Second
	}
	return &RedisSummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "RedisSummaryCache"),
	}
}

func summaryKey(ownerID string) string {
	return summaryKeyPrefix + ownerID
}

func generationKey(ownerID string) string {
	return generationKeyPrefix + ownerID
}

// Get reads the entry and the owner's current generation in one round trip.
// An entry from an older generation was computed before a write and is a miss.
func (c *RedisSummaryCache) Get(ctx context.Context, ownerID string) (*loan.Summary, loan.Generation, error) {
	vals, err := c.client.MGet(ctx, summaryKey(ownerID), generationKey(ownerID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get summary: %w", err)
	}
	if len(vals) != 2 {
		return nil, 0, fmt.Errorf("redis get summary: expected 2 values, got %d", len(vals))
	}

	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, loan.ErrCacheMiss
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.WarnContext(ctx, "Discarding undecodable cached summary", slog.String("ownerID", ownerID), slog.Any("error", err))
		return nil, gen, loan.ErrCacheMiss
	}
	if e.Generation != gen {
		c.logger.DebugContext(ctx, "Ignoring summary from an invalidated generation",
			slog.String("ownerID", ownerID), slog.Int64("entry", int64(e.Generation)), slog.Int64("current", int64(gen)))
		return nil, gen, loan.ErrCacheMiss
	}
	return &e.Summary, gen, nil
}

func parseGeneration(v any) (loan.Generation, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis summary generation %q: %w", s, err)
	}
	return loan.Generation(n), nil
}

// Set stores the summary for the shorter of ttl and the configured expiry.
func (c *RedisSummaryCache) Set(ctx context.Context, ownerID string, gen loan.Generation, summary loan.Summary, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}
	raw, err := json.Marshal(entry{Generation: gen, Summary: summary})
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(ownerID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set summary: %w", err)
	}
	c.touchGeneration(ctx, ownerID)
	return nil
}

func (c *RedisSummaryCache) touchGeneration(ctx context.Context, ownerID string) {
	if err := c.client.Expire(ctx, generationKey(ownerID), generationTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to extend summary generation expiry", slog.String("ownerID", ownerID), slog.Any("error", err))
	}
}

// Invalidate moves the owner to a new generation before dropping the entry,
// so a summary computed before the write cannot be served even if its Set
// lands afterwards.
func (c *RedisSummaryCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.client.Incr(ctx, generationKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis bump summary generation: %w", err)
	}
	c.touchGeneration(ctx, ownerID)
	if err := c.client.Del(ctx, summaryKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis del summary: %w", err)
	}
	return nil
}
