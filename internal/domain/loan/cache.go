package loan

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by SummaryCache.Get when no usable entry exists.
var ErrCacheMiss = errors.New("summary cache miss")

// Generation identifies one owner's ledger state between two invalidations.
type Generation int64

type SummaryCache interface {
	// Get returns the cached summary. On a miss it returns ErrCacheMiss along
	// with the generation a following Set must present.
	Get(ctx context.Context, ownerID string) (*Summary, Generation, error)
	// Set stores summary for at most ttl, or the cache's own expiry when ttl
	// is zero. An entry whose generation was invalidated is never served.
	Set(ctx context.Context, ownerID string, gen Generation, summary Summary, ttl time.Duration) error
	Invalidate(ctx context.Context, ownerID string) error
}

type NoopSummaryCache struct{}

var _ SummaryCache = NoopSummaryCache{}

func (NoopSummaryCache) Get(context.Context, string) (*Summary, Generation, error) {
	return nil, 0, ErrCacheMiss
}

func (NoopSummaryCache) Set(context.Context, string, Generation, Summary, time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(context.Context, string) error {
	return nil
}
