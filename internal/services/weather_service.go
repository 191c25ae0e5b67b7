package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pawwalk/pawwalk/internal/cache"
	"github.com/pawwalk/pawwalk/internal/integrations/weather"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

// WeatherFetcher retrieves the current observation at a coordinate.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lng float64) (*weather.Observation, error)
}

// WeatherService serves observations from the cache and refreshes stale or
// missing entries, falling back to stale data when the fetch fails.
type WeatherService struct {
	cache   *cache.WeatherCache
	fetcher WeatherFetcher
	group   singleflight.Group
	now     func() time.Time
	log     *zap.Logger
}

// NewWeatherService constructs a WeatherService. fetcher may be nil, in which
// case only cached data is served.
func NewWeatherService(weatherCache *cache.WeatherCache, fetcher WeatherFetcher) (*WeatherService, error) {
	if weatherCache == nil {
		return nil, errors.New("weather service: cache is required")
	}
	return &WeatherService{
		cache:   weatherCache,
		fetcher: fetcher,
		now:     time.Now,
		log:     logger.WithModule("weather"),
	}, nil
}

// Current returns the observation at lat/lng. Concurrent refreshes for the
// same cache key share one upstream call.
func (s *WeatherService) Current(ctx context.Context, lat, lng float64) (cache.Snapshot, error) {
	ctx = ensureContext(ctx)

	cached, found := s.cache.Get(lat, lng)
	if found && !cached.IsStale {
		return cached, nil
	}
	if s.fetcher == nil {
		if found {
			return cached, nil
		}
		return cache.Snapshot{}, apperrors.ErrWeatherUnavailable
	}

	key := cache.WeatherKey(lat, lng)
	// The shared fetch must outlive any single caller; the fetcher's own
	// timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	results := s.group.DoChan(key, func() (any, error) {
		obs, err := s.fetcher.Fetch(fetchCtx, lat, lng)
		if err != nil {
			return nil, err
		}
		if obs == nil {
			return nil, weather.ErrUnavailable
		}
		s.cache.Put(lat, lng, *obs)
		return *obs, nil
	})

	var (
		value any
		err   error
	)
	select {
	case res := <-results:
		value, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if found {
			s.log.Warn("weather refresh failed, serving stale observation",
				zap.String("key", key),
				zap.Int("cache_age_seconds", cached.CacheAgeSeconds),
				zap.Error(err),
			)
			return cached, nil
		}
		return cache.Snapshot{}, apperrors.ErrWeatherUnavailable.WithInternal(err)
	}

	return cache.Snapshot{
		Data:     value.(weather.Observation),
		StoredAt: s.now(),
	}, nil
}
