package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/providers"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
)

const geocodeCacheKeyPrefix = "geo:v3:geocode:"

// CachedGeolocationProvider wraps a GeolocationProvider with a read-through cache.
// Definitive misses (not found, ambiguous) are cached for a shorter negativeTTL.
// Transport errors and timeouts are never cached.
type CachedGeolocationProvider struct {
	next        providers.GeolocationProvider
	cache       providers.CacheProvider
	ttl         time.Duration
	negativeTTL time.Duration
	metrics     *observability.Metrics
}

type cachedGeocode struct {
	Coordinate *entities.Coordinate `json:"coordinate,omitempty"`
	Miss       string               `json:"miss,omitempty"`
}

// NewCachedGeolocationProvider creates a caching decorator. A zero negativeTTL disables negative caching.
func NewCachedGeolocationProvider(next providers.GeolocationProvider, cache providers.CacheProvider, ttl, negativeTTL time.Duration, metrics *observability.Metrics) *CachedGeolocationProvider {
	return &CachedGeolocationProvider{
		next:        next,
		cache:       cache,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		metrics:     metrics,
	}
}

// Geocode serves from cache when possible and populates it on definitive answers
func (c *CachedGeolocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	key := geocodeCacheKey(address)

	if cached, err := c.cache.Get(ctx, key); err == nil {
		var entry cachedGeocode
		if err := json.Unmarshal(cached, &entry); err == nil {
			observability.RecordGeocodeCache(ctx, c.metrics, true)
			return entry.result()
		}
		observability.LoggerFromContext(ctx).Debug().Str("key", key).Msg("discarding unreadable geocode cache entry")
		if err := c.cache.Delete(ctx, key); err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Msg("geocode cache delete failed")
		}
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("geocode cache read failed")
	}
	observability.RecordGeocodeCache(ctx, c.metrics, false)

	coord, err := c.next.Geocode(ctx, address)
	switch {
	case err == nil && coord != nil:
		c.store(ctx, key, cachedGeocode{Coordinate: coord}, c.ttl)
	case errors.Is(err, providers.ErrLocationNotFound):
		c.store(ctx, key, cachedGeocode{Miss: missNotFound}, c.negativeTTL)
	case errors.Is(err, providers.ErrAmbiguousLocation):
		c.store(ctx, key, cachedGeocode{Miss: missAmbiguous}, c.negativeTTL)
	}
	return coord, err
}

const (
	missNotFound  = "not_found"
	missAmbiguous = "ambiguous"
)

func (e cachedGeocode) result() (*entities.Coordinate, error) {
	switch e.Miss {
	case missNotFound:
		return nil, providers.ErrLocationNotFound
	case missAmbiguous:
		return nil, providers.ErrAmbiguousLocation
	}
	if e.Coordinate == nil {
		return nil, providers.ErrLocationNotFound
	}
	coord := *e.Coordinate
	return &coord, nil
}

func (c *CachedGeolocationProvider) store(ctx context.Context, key string, entry cachedGeocode, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, payload, ttl); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("geocode cache write failed")
	}
}

// geocodeCacheKey normalizes case and whitespace so "Austin,  TX" and "austin, tx" share an entry
func geocodeCacheKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return geocodeCacheKeyPrefix + hex.EncodeToString(sum[:])
}
