package services

import (
	"github.com/shopspring/decimal"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

var (
	austin     = entities.Coordinate{Latitude: 30.2672, Longitude: -97.7431}
	roundRock  = entities.Coordinate{Latitude: 30.5083, Longitude: -97.6789}
	sanAntonio = entities.Coordinate{Latitude: 29.4241, Longitude: -98.4936}
	houston    = entities.Coordinate{Latitude: 29.7604, Longitude: -95.3698}
)

func coord(c entities.Coordinate) *entities.Coordinate {
	return &c
}

func testOffering(id, name string, price float64, at *entities.Coordinate) *entities.ProcedureOffering {
	return &entities.ProcedureOffering{
		ID:         id,
		TemplateID: "tpl-" + name,
		LocationID: "loc-" + id,
		Price:      decimal.NewFromFloat(price),
		IsActive:   true,
		Template: &entities.ProcedureTemplate{
			ID:       "tpl-" + name,
			Name:     name,
			IsActive: true,
		},
		Location: &entities.Location{
			ID:         "loc-" + id,
			ProviderID: "prov-" + id,
			Coordinate: at,
			IsActive:   true,
		},
	}
}

func resultIDs(results []entities.RankedResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}
