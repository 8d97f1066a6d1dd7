package geolocation

import (
	"context"
	"strings"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/providers"
)

// MockGeolocationProvider resolves a fixed gazetteer of US cities and ZIP codes.
// Used in development and tests where no geocoding API key is configured.
type MockGeolocationProvider struct {
	places map[string]entities.Coordinate
}

// NewMockGeolocationProvider creates a mock provider seeded with common US locations
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return NewMockGeolocationProviderWith(map[string]entities.Coordinate{
		"new york":    {Latitude: 40.7128, Longitude: -74.0060},
		"los angeles": {Latitude: 34.0522, Longitude: -118.2437},
		"chicago":     {Latitude: 41.8781, Longitude: -87.6298},
		"houston":     {Latitude: 29.7604, Longitude: -95.3698},
		"phoenix":     {Latitude: 33.4484, Longitude: -112.0740},
		"austin":      {Latitude: 30.2672, Longitude: -97.7431},
		"round rock":  {Latitude: 30.5083, Longitude: -97.6789},
		"san antonio": {Latitude: 29.4241, Longitude: -98.4936},
		"dallas":      {Latitude: 32.7767, Longitude: -96.7970},
		"78701":       {Latitude: 30.2711, Longitude: -97.7437},
		"10001":       {Latitude: 40.7506, Longitude: -73.9972},
	})
}

// NewMockGeolocationProviderWith creates a mock provider over the given places.
// Keys are matched case-insensitively as substrings of the address.
func NewMockGeolocationProviderWith(places map[string]entities.Coordinate) *MockGeolocationProvider {
	normalized := make(map[string]entities.Coordinate, len(places))
	for name, c := range places {
		normalized[strings.ToLower(strings.TrimSpace(name))] = c
	}
	return &MockGeolocationProvider{places: normalized}
}

// Geocode returns the coordinate of the longest known place named in address
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(address))
	if needle == "" {
		return nil, providers.ErrLocationNotFound
	}

	var (
		best    string
		coord   entities.Coordinate
		matched bool
	)
	for name, c := range m.places {
		if strings.Contains(needle, name) && len(name) > len(best) {
			best, coord, matched = name, c, true
		}
	}
	if !matched {
		return nil, providers.ErrLocationNotFound
	}
	return &coord, nil
}
