package osrm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/richxcame/osrm-route/internal/route"
	"github.com/richxcame/osrm-route/pkg/cache"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/logger"
	"go.uber.org/zap"
)

// RouteCache stores raw route documents. Misses are cache.ErrMiss.
type RouteCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachingFetcher serves repeated origin/destination pairs from a cache.
// Only bodies that parse as a valid Ok answer are stored; cache failures
// fall through to the wrapped fetcher.
type CachingFetcher struct {
	next  Fetcher
	cache RouteCache
	ttl   time.Duration
}

// NewCachingFetcher wraps next with store.
func NewCachingFetcher(next Fetcher, store RouteCache, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{next: next, cache: store, ttl: ttl}
}

// Fetch implements Fetcher.
func (f *CachingFetcher) Fetch(ctx context.Context, origin, destination geo.Point) ([]byte, error) {
	key := routeCacheKey(origin, destination)

	raw, err := f.cache.GetBytes(ctx, key)
	switch {
	case err == nil:
		routeCacheLookups.WithLabelValues("hit").Inc()
		return raw, nil
	case errors.Is(err, cache.ErrMiss):
		routeCacheLookups.WithLabelValues("miss").Inc()
	default:
		routeCacheLookups.WithLabelValues("error").Inc()
		logger.WarnContext(ctx, "Route cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	raw, err = f.next.Fetch(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	if resp, err := route.Parse(raw); err != nil || !resp.OK() {
		logger.DebugContext(ctx, "Route response not cached", zap.String("key", key), zap.Error(err))
		return raw, nil
	}

	if err := f.cache.SetBytes(ctx, key, raw, f.ttl); err != nil {
		logger.WarnContext(ctx, "Failed to cache route", zap.String("key", key), zap.Error(err))
	}
	return raw, nil
}

func routeCacheKey(origin, destination geo.Point) string {
	var b strings.Builder
	b.WriteString("route:")
	writeCoordinate(&b, origin)
	b.WriteByte(';')
	writeCoordinate(&b, destination)
	return b.String()
}

var _ Fetcher = (*CachingFetcher)(nil)
