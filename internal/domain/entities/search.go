package entities

import "strings"

// SortOrder selects how ranked results are ordered
type SortOrder string

const (
	SortPriceAsc    SortOrder = "price_asc"
	SortPriceDesc   SortOrder = "price_desc"
	SortDistanceAsc SortOrder = "distance_asc"
	SortNameAsc     SortOrder = "name_asc"
	SortRatingDesc  SortOrder = "rating_desc"
)

// Search defaults applied when the request omits or garbles a value
const (
	DefaultRadiusMiles = 50.0
	DefaultPage        = 1
	DefaultLimit       = 20
)

// GeocodeWarningMessage is attached to responses whose location could not be resolved
const GeocodeWarningMessage = "Could not find the specified location. Showing all results instead."

// ParseSortOrder maps a wire value onto a SortOrder, returning fallback for
// empty or unrecognized input.
func ParseSortOrder(raw string, fallback SortOrder) SortOrder {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(raw))); order {
	case SortPriceAsc, SortPriceDesc, SortDistanceAsc, SortNameAsc, SortRatingDesc:
		return order
	default:
		return fallback
	}
}

// SearchQuery is the request-scoped input of a catalog search
type SearchQuery struct {
	Text         string
	CategoryID   string
	LocationText string
	RadiusMiles  float64
	SortOrder    SortOrder
	Page         int
	Limit        int
}

// RankedResult is an offering enriched with its distance from the search origin.
// DistanceMiles is nil when no location filter was applied.
type RankedResult struct {
	*ProcedureOffering
	DistanceMiles *float64 `json:"distance_miles"`
}

// RankedProvider is a provider ranked by the distance to its closest location
type RankedProvider struct {
	*Provider
	DistanceMiles   *float64  `json:"distance_miles"`
	ClosestLocation *Location `json:"closest_location,omitempty"`
}

// PageMeta describes the window returned by a paginated search
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// PriceStatistics summarizes a price population. All fields are zero when Count is zero.
type PriceStatistics struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// SearchLocation is a resolved search origin together with the text it came from
type SearchLocation struct {
	Coordinate
	Text string `json:"text"`
}

// ProcedureSearchResult is the outcome of SearchProcedures
type ProcedureSearchResult struct {
	Results        []RankedResult
	Pagination     PageMeta
	GeocodeWarning string
	SearchLocation *SearchLocation
}

// ProviderSearchResult is the outcome of SearchProviders
type ProviderSearchResult struct {
	Results        []RankedProvider
	Pagination     PageMeta
	GeocodeWarning string
	SearchLocation *SearchLocation
}

// LocationInfo describes the proximity filter applied to a statistics request
type LocationInfo struct {
	SearchLocation   SearchLocation `json:"searchLocation"`
	SearchRadius     float64        `json:"searchRadius"`
	ProvidersInRange int            `json:"providersInRange"`
}

// ProcedureStatistics is the outcome of GetProcedureStatistics
type ProcedureStatistics struct {
	Template       *ProcedureTemplate
	Statistics     PriceStatistics
	LocationInfo   *LocationInfo
	GeocodeWarning string
}
