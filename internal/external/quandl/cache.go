package quandl

import (
	"context"
	"time"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/pkg/logger"
	"github.com/sv650s/springboard/pkg/redis"
)

// CachedFetcher serves repeated dataset requests from Redis
type CachedFetcher struct {
	next   Fetcher
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewCachedFetcher wraps next with cache. A disabled cache passes every call through.
func NewCachedFetcher(next Fetcher, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl, logger: log, now: time.Now}
}

// FetchDataset returns the cached dataset or fetches and stores it.
// Cache failures are logged and never fail the request.
func (f *CachedFetcher) FetchDataset(ctx context.Context, req Request) (*contracts.Dataset, error) {
	key := redis.DatasetKey(req.Database, req.Ticker, req.StartDate, req.EndDate, req.Order)

	var cached contracts.Dataset
	found, err := f.cache.Get(ctx, key, &cached)
	if err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("Dataset cache read failed")
	}
	if found {
		f.logger.WithField("key", key).Debug("Dataset cache hit")
		return &cached, nil
	}

	ds, err := f.next.FetchDataset(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, ds, f.ttlFor(req)); err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("Dataset cache write failed")
	}
	return ds, nil
}

// ttlFor keeps ranges that ended before today for redis.TTLHistorical (or the
// configured TTL when longer); open or current ranges use the configured TTL
func (f *CachedFetcher) ttlFor(req Request) time.Duration {
	if req.EndDate == "" || f.ttl >= redis.TTLHistorical {
		return f.ttl
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return f.ttl
	}
	today := f.now().UTC().Truncate(24 * time.Hour)
	if end.Before(today) {
		return redis.TTLHistorical
	}
	return f.ttl
}
