package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
)

// CachedGeocoder remembers successful ZIP lookups
type CachedGeocoder struct {
	next   domain.Geocoder
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedGeocoder wraps next with a cache. A zero ttl defaults to 24h.
func NewCachedGeocoder(next domain.Geocoder, cache domain.CacheRepository, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGeocoder{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: zap.L().Named("geocoder"),
	}
}

// GeocodeZip checks the cache, then the wrapped geocoder. Failures are not cached.
func (g *CachedGeocoder) GeocodeZip(ctx context.Context, zip string) domain.GeocodeResult {
	if !domain.IsZip5(zip) {
		return domain.GeocodeResult{Reason: domain.ReasonInvalidZip}
	}

	key := "geocode:" + zip
	if cached, err := g.cache.Get(ctx, key); err == nil {
		if res, ok := cached.(domain.GeocodeResult); ok {
			return res
		}
	}

	res := g.next.GeocodeZip(ctx, zip)
	if res.OK {
		if err := g.cache.Set(ctx, key, res, g.ttl); err != nil {
			g.logger.Warn("failed to cache geocode result", zap.String("zip", zip), zap.Error(err))
		}
	}
	return res
}
