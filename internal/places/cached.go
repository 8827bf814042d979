package places

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// DefaultCacheTTL bounds staleness of nearby results. Facilities churn
// slowly, so an hour is plenty fresh for annotation suggestions.
const DefaultCacheTTL = time.Hour

// CachedService memoizes lookups. Cache failures degrade to the inner
// service; a broken cache must not break lookups.
type CachedService struct {
	inner  Service
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

type CachedOption func(*CachedService)

func WithTTL(ttl time.Duration) CachedOption {
	return func(s *CachedService) { s.ttl = ttl }
}

func WithLogger(logger *slog.Logger) CachedOption {
	return func(s *CachedService) { s.logger = logger }
}

func NewCachedService(inner Service, cache Cache, opts ...CachedOption) *CachedService {
	s := &CachedService{inner: inner, cache: cache, ttl: DefaultCacheTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cacheKey rounds the center to ~11m of precision so nearby requests
// from a drifting GPS fix share an entry.
func cacheKey(center Coordinate, radiusMeters float64) string {
	round := func(v float64) float64 { return math.Round(v*1e4) / 1e4 }
	return fmt.Sprintf("%.4f:%.4f:%.0f", round(center.Latitude), round(center.Longitude), radiusMeters)
}

func (s *CachedService) NearbyPOI(ctx context.Context, center Coordinate, radiusMeters float64) ([]POI, error) {
	key := cacheKey(center, radiusMeters)

	pois, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "places cache read failed", "error", err)
	} else if hit {
		return pois, nil
	}

	pois, err = s.inner.NearbyPOI(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, pois, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "places cache write failed", "error", err)
	}
	return pois, nil
}
