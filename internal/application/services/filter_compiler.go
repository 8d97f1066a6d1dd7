package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
)

// SearchParams carries the raw wire parameters of a search request
type SearchParams struct {
	Query      string
	CategoryID string
	Location   string
	Distance   string
	Sort       string
	Page       string
	Limit      string
}

// QueryDefaults controls how missing or invalid search parameters are filled in
type QueryDefaults struct {
	RadiusMiles float64
	Limit       int
	MaxLimit    int
	SortOrder   entities.SortOrder
}

// DefaultQueryDefaults returns the procedure search defaults
func DefaultQueryDefaults() QueryDefaults {
	return QueryDefaults{
		RadiusMiles: entities.DefaultRadiusMiles,
		Limit:       entities.DefaultLimit,
		SortOrder:   entities.SortPriceAsc,
	}
}

// ParseSearchQuery converts raw wire parameters into a SearchQuery.
// Invalid numbers never fail the request; they fall back to the defaults.
func ParseSearchQuery(params SearchParams, defaults QueryDefaults) entities.SearchQuery {
	page, limit := ParsePageParams(params.Page, params.Limit, defaults.Limit, defaults.MaxLimit)

	return entities.SearchQuery{
		Text:         strings.TrimSpace(params.Query),
		CategoryID:   strings.TrimSpace(params.CategoryID),
		LocationText: strings.TrimSpace(params.Location),
		RadiusMiles:  ParseRadius(params.Distance, defaults.RadiusMiles),
		SortOrder:    entities.ParseSortOrder(params.Sort, defaults.SortOrder),
		Page:         page,
		Limit:        limit,
	}
}

// ParseRadius parses a travel radius in miles, returning fallback for
// missing, non-numeric or non-positive input
func ParseRadius(raw string, fallback float64) float64 {
	if fallback <= 0 {
		fallback = entities.DefaultRadiusMiles
	}
	radius, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return fallback
	}
	return radius
}

// CompileFilter builds the declarative candidate filter for a query.
// Inactive templates, offerings and locations are always excluded.
func CompileFilter(query entities.SearchQuery) repositories.OfferingFilter {
	return repositories.OfferingFilter{
		Text:       normalizeText(query.Text),
		CategoryID: strings.TrimSpace(query.CategoryID),
		ActiveOnly: true,
	}
}

// CompileProviderFilter builds the provider filter for a query
func CompileProviderFilter(query entities.SearchQuery) repositories.ProviderFilter {
	return repositories.ProviderFilter{
		Text:       normalizeText(query.Text),
		ActiveOnly: true,
	}
}

func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
