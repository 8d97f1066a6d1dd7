package entities

import (
	"math"
	"time"
)

// Coordinate represents a WGS84 latitude/longitude pair
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within the latitude/longitude ranges
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Address represents a postal address
type Address struct {
	Street1 string `json:"street1" db:"street1"`
	Street2 string `json:"street2,omitempty" db:"street2"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	ZipCode string `json:"zip_code" db:"zip_code"`
}

// Location is a physical site operated by a provider.
// Coordinate is nil until the location has been geocoded.
type Location struct {
	ID         string      `json:"id" db:"id"`
	ProviderID string      `json:"provider_id" db:"provider_id"`
	Address    Address     `json:"address" db:"-"`
	Coordinate *Coordinate `json:"coordinate,omitempty" db:"-"`
	IsActive   bool        `json:"is_active" db:"is_active"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// HasCoordinate reports whether the location can take part in proximity filtering
func (l *Location) HasCoordinate() bool {
	return l != nil && l.Coordinate != nil
}
