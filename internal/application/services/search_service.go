package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

// SearchService composes filter compilation, geocoding, proximity ranking,
// pagination and price statistics into the public search operations
type SearchService struct {
	catalog  repositories.CatalogRepository
	index    repositories.OfferingIndex
	resolver *LocationResolver
	ranker   *ProximityRanker
	metrics  *observability.Metrics
}

// NewSearchService creates a new search service
func NewSearchService(
	catalog repositories.CatalogRepository,
	resolver *LocationResolver,
	ranker *ProximityRanker,
	metrics *observability.Metrics,
) *SearchService {
	return &SearchService{
		catalog:  catalog,
		resolver: resolver,
		ranker:   ranker,
		metrics:  metrics,
	}
}

// SetOfferingIndex makes the service load procedure candidates from a full-text
// index, falling back to the catalog store when the index fails
func (s *SearchService) SetOfferingIndex(index repositories.OfferingIndex) {
	s.index = index
}

// SearchProcedures finds priced offerings matching the query, ranked and paginated
func (s *SearchService) SearchProcedures(ctx context.Context, query entities.SearchQuery) (*entities.ProcedureSearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.SearchProcedures")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("search.text", query.Text),
		attribute.String("search.category_id", query.CategoryID),
		attribute.Bool("search.has_location", query.LocationText != ""),
		attribute.String("search.sort", string(query.SortOrder)),
	)

	filter := CompileFilter(query)

	var (
		candidates []*entities.ProcedureOffering
		origin     *entities.Coordinate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.findCandidates(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		origin, err = s.resolver.Resolve(gctx, query.LocationText)
		return err
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		observability.RecordSearch(ctx, s.metrics, "procedures", "error", len(candidates))
		return nil, err
	}

	ranked := s.ranker.RankOfferings(candidates, query, origin)
	window, meta := Paginate(ranked, query.Page, query.Limit)

	result := &entities.ProcedureSearchResult{
		Results:    window,
		Pagination: meta,
	}
	outcome := s.applyOrigin(query.LocationText, origin, &result.GeocodeWarning, &result.SearchLocation)

	observability.SetSpanAttributes(span,
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.matches", meta.Total),
	)
	observability.RecordSearch(ctx, s.metrics, "procedures", outcome, len(candidates))
	return result, nil
}

// SearchProviders finds providers matching the query, ranked by their closest location
func (s *SearchService) SearchProviders(ctx context.Context, query entities.SearchQuery) (*entities.ProviderSearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.SearchProviders")
	defer span.End()

	filter := CompileProviderFilter(query)

	var (
		candidates []*entities.Provider
		origin     *entities.Coordinate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.catalog.FindProviders(gctx, filter)
		if err != nil {
			return apperrors.Internal("failed to load providers", err)
		}
		candidates = found
		return nil
	})
	g.Go(func() error {
		var err error
		origin, err = s.resolver.Resolve(gctx, query.LocationText)
		return err
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		observability.RecordSearch(ctx, s.metrics, "providers", "error", len(candidates))
		return nil, err
	}

	ranked := s.ranker.RankProviders(candidates, query, origin)
	window, meta := Paginate(ranked, query.Page, query.Limit)

	result := &entities.ProviderSearchResult{
		Results:    window,
		Pagination: meta,
	}
	outcome := s.applyOrigin(query.LocationText, origin, &result.GeocodeWarning, &result.SearchLocation)

	observability.RecordSearch(ctx, s.metrics, "providers", outcome, len(candidates))
	return result, nil
}

// GetProcedureStatistics summarizes the prices of a template's active offerings,
// optionally restricted to offerings within radiusMiles of locationText
func (s *SearchService) GetProcedureStatistics(ctx context.Context, templateID, locationText string, radiusMiles float64) (*entities.ProcedureStatistics, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.GetProcedureStatistics")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("procedure.template_id", templateID))

	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, apperrors.NewValidationError("template ID is required")
	}

	template, err := s.catalog.FindTemplateByID(ctx, templateID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.Internal("failed to load procedure template", err)
	}

	offerings, err := s.catalog.FindOfferingsByTemplate(ctx, templateID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.Internal("failed to load procedure offerings", err)
	}

	result := &entities.ProcedureStatistics{Template: template}

	locationText = strings.TrimSpace(locationText)
	if locationText != "" {
		origin, err := s.resolver.Resolve(ctx, locationText)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		if origin == nil {
			result.GeocodeWarning = entities.GeocodeWarningMessage
		} else {
			radius := radiusOf(entities.SearchQuery{RadiusMiles: radiusMiles})
			within := WithinRadius(offerings, *origin, radius)

			offerings = make([]*entities.ProcedureOffering, 0, len(within))
			providerIDs := make(map[string]struct{}, len(within))
			for _, r := range within {
				offerings = append(offerings, r.ProcedureOffering)
				providerIDs[providerKey(r.ProcedureOffering)] = struct{}{}
			}

			result.LocationInfo = &entities.LocationInfo{
				SearchLocation:   entities.SearchLocation{Coordinate: *origin, Text: locationText},
				SearchRadius:     radius,
				ProvidersInRange: len(providerIDs),
			}
		}
	}

	result.Statistics = AggregatePrices(offeringPrices(offerings))
	return result, nil
}

func (s *SearchService) findCandidates(ctx context.Context, filter repositories.OfferingFilter) ([]*entities.ProcedureOffering, error) {
	if s.index != nil {
		indexed, err := s.index.Search(ctx, filter)
		if err == nil {
			matched := make([]*entities.ProcedureOffering, 0, len(indexed))
			for _, o := range indexed {
				if filter.Matches(o) {
					matched = append(matched, o)
				}
			}
			return matched, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("offering index search failed, falling back to catalog store")
	}

	offerings, err := s.catalog.FindOfferings(ctx, filter)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("catalog store read failed")
		return nil, apperrors.Internal("failed to load catalog candidates", err)
	}
	return offerings, nil
}

// applyOrigin fills the geocode warning or resolved location and reports the search outcome
func (s *SearchService) applyOrigin(locationText string, origin *entities.Coordinate, warning *string, location **entities.SearchLocation) string {
	locationText = strings.TrimSpace(locationText)
	switch {
	case locationText == "":
		return "ok"
	case origin == nil:
		*warning = entities.GeocodeWarningMessage
		return "degraded"
	default:
		*location = &entities.SearchLocation{Coordinate: *origin, Text: locationText}
		return "ok"
	}
}

func providerKey(o *entities.ProcedureOffering) string {
	switch {
	case o.Provider != nil && o.Provider.ID != "":
		return o.Provider.ID
	case o.Location != nil && o.Location.ProviderID != "":
		return o.Location.ProviderID
	default:
		return o.LocationID
	}
}
