package services

import (
	"math"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

// EarthRadiusMiles is the mean Earth radius used by the spherical approximation
const EarthRadiusMiles = 3958.8

// DistanceMiles returns the haversine great-circle distance between a and b in miles
func DistanceMiles(a, b entities.Coordinate) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Latitude))*math.Cos(degreesToRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
