package services

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

// ProximityRanker attaches distances, applies the radius filter and orders results
type ProximityRanker struct {
	language language.Tag
}

// NewProximityRanker creates a ranker whose name ordering follows the collation rules of lang
func NewProximityRanker(lang language.Tag) *ProximityRanker {
	return &ProximityRanker{language: lang}
}

// RankOfferings filters and orders candidate offerings.
//
// Without an origin every candidate passes through with a nil distance. With an
// origin, candidates whose location has no coordinate are dropped, as are those
// farther than the query radius. These are separate paths: treating a missing
// origin like a missing coordinate would empty every non-geographic search.
func (r *ProximityRanker) RankOfferings(candidates []*entities.ProcedureOffering, query entities.SearchQuery, origin *entities.Coordinate) []entities.RankedResult {
	var ranked []entities.RankedResult
	if origin == nil {
		ranked = make([]entities.RankedResult, 0, len(candidates))
		for _, o := range candidates {
			if o == nil {
				continue
			}
			ranked = append(ranked, entities.RankedResult{ProcedureOffering: o})
		}
	} else {
		ranked = WithinRadius(candidates, *origin, radiusOf(query))
	}

	r.sortOfferings(ranked, query.SortOrder, origin != nil)
	return ranked
}

// WithinRadius returns the offerings whose location lies at most radiusMiles
// from origin, each annotated with its distance. Offerings without a
// location coordinate are excluded. Input order is preserved.
func WithinRadius(candidates []*entities.ProcedureOffering, origin entities.Coordinate, radiusMiles float64) []entities.RankedResult {
	within := make([]entities.RankedResult, 0, len(candidates))
	for _, o := range candidates {
		if o == nil || !o.Location.HasCoordinate() {
			continue
		}
		d := DistanceMiles(origin, *o.Location.Coordinate)
		if d > radiusMiles {
			continue
		}
		within = append(within, entities.RankedResult{ProcedureOffering: o, DistanceMiles: &d})
	}
	return within
}

func (r *ProximityRanker) sortOfferings(results []entities.RankedResult, order entities.SortOrder, hasOrigin bool) {
	if order == entities.SortDistanceAsc && !hasOrigin {
		order = entities.SortPriceAsc
	}

	switch order {
	case entities.SortPriceDesc:
		slices.SortStableFunc(results, func(a, b entities.RankedResult) int {
			return b.Price.Cmp(a.Price)
		})
	case entities.SortDistanceAsc:
		slices.SortStableFunc(results, func(a, b entities.RankedResult) int {
			return cmp.Compare(*a.DistanceMiles, *b.DistanceMiles)
		})
	case entities.SortNameAsc:
		collator := collate.New(r.language)
		slices.SortStableFunc(results, func(a, b entities.RankedResult) int {
			return collator.CompareString(a.TemplateName(), b.TemplateName())
		})
	default:
		slices.SortStableFunc(results, func(a, b entities.RankedResult) int {
			return a.Price.Cmp(b.Price)
		})
	}
}

// RankProviders filters and orders providers by the distance to their closest
// active location. Without an origin providers pass through unfiltered and
// distance_asc falls back to rating_desc.
func (r *ProximityRanker) RankProviders(candidates []*entities.Provider, query entities.SearchQuery, origin *entities.Coordinate) []entities.RankedProvider {
	ranked := make([]entities.RankedProvider, 0, len(candidates))
	radius := radiusOf(query)

	for _, p := range candidates {
		if p == nil {
			continue
		}
		if origin == nil {
			ranked = append(ranked, entities.RankedProvider{Provider: p})
			continue
		}
		closest, d, ok := closestLocation(p, *origin)
		if !ok || d > radius {
			continue
		}
		ranked = append(ranked, entities.RankedProvider{Provider: p, DistanceMiles: &d, ClosestLocation: closest})
	}

	order := query.SortOrder
	if order == entities.SortDistanceAsc && origin == nil {
		order = entities.SortRatingDesc
	}

	switch order {
	case entities.SortDistanceAsc:
		slices.SortStableFunc(ranked, func(a, b entities.RankedProvider) int {
			return cmp.Compare(*a.DistanceMiles, *b.DistanceMiles)
		})
	case entities.SortNameAsc:
		collator := collate.New(r.language)
		slices.SortStableFunc(ranked, func(a, b entities.RankedProvider) int {
			return collator.CompareString(a.OrganizationName, b.OrganizationName)
		})
	default:
		slices.SortStableFunc(ranked, func(a, b entities.RankedProvider) int {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
			return cmp.Compare(b.ReviewCount, a.ReviewCount)
		})
	}

	return ranked
}

// closestLocation returns the active, geocoded location of p nearest to origin
func closestLocation(p *entities.Provider, origin entities.Coordinate) (*entities.Location, float64, bool) {
	var (
		best     *entities.Location
		bestDist float64
	)
	for _, loc := range p.Locations {
		if !loc.HasCoordinate() || !loc.IsActive {
			continue
		}
		d := DistanceMiles(origin, *loc.Coordinate)
		if best == nil || d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best, bestDist, best != nil
}

func radiusOf(query entities.SearchQuery) float64 {
	if query.RadiusMiles <= 0 {
		return entities.DefaultRadiusMiles
	}
	return query.RadiusMiles
}
