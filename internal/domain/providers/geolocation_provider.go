package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

var (
	// ErrLocationNotFound is returned when the geocoder has no result for an address
	ErrLocationNotFound = errors.New("location not found")

	// ErrAmbiguousLocation is returned when the geocoder cannot settle on a single result
	ErrAmbiguousLocation = errors.New("location is ambiguous")
)

// GeolocationProvider defines the interface for geocoding services
type GeolocationProvider interface {
	// Geocode converts a free-text address to coordinates
	Geocode(ctx context.Context, address string) (*entities.Coordinate, error)
}
