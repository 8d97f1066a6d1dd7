package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/zatekoja/pricefinder/internal/application/services"
	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/providers"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

var (
	austinTX  = &entities.Coordinate{Latitude: 30.2672, Longitude: -97.7431}
	roundRock = &entities.Coordinate{Latitude: 30.5083, Longitude: -97.6789}
	houstonTX = &entities.Coordinate{Latitude: 29.7604, Longitude: -95.3698}
)

var mriFilter = repositories.OfferingFilter{Text: "mri", ActiveOnly: true}

func mriOffering(id, providerID string, price float64, at *entities.Coordinate) *entities.ProcedureOffering {
	return &entities.ProcedureOffering{
		ID:         id,
		TemplateID: "tpl-mri",
		LocationID: "loc-" + id,
		Price:      decimal.NewFromFloat(price),
		IsActive:   true,
		Template:   &entities.ProcedureTemplate{ID: "tpl-mri", Name: "MRI Brain", IsActive: true},
		Location:   &entities.Location{ID: "loc-" + id, ProviderID: providerID, Coordinate: at, IsActive: true},
	}
}

func mriCatalog() []*entities.ProcedureOffering {
	return []*entities.ProcedureOffering{
		mriOffering("downtown", "prov-1", 300, austinTX),
		mriOffering("north", "prov-2", 150, roundRock),
		mriOffering("gulf", "prov-3", 120, houstonTX),
		mriOffering("mobile", "prov-4", 90, nil),
	}
}

func newSearchService(catalog *MockCatalogRepository, geocoder *MockGeolocationProvider) *services.SearchService {
	resolver := services.NewLocationResolver(geocoder, time.Second, nil)
	return services.NewSearchService(catalog, resolver, services.NewProximityRanker(language.English), nil)
}

func ids(results []entities.RankedResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestSearchService_SearchProcedures_WithLocation(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindOfferings", mock.Anything, mriFilter).Return(mriCatalog(), nil)
	geocoder.On("Geocode", mock.Anything, "Austin, TX").Return(austinTX, nil)
	service := newSearchService(catalog, geocoder)

	result, err := service.SearchProcedures(context.Background(), entities.SearchQuery{
		Text:         "MRI",
		LocationText: "Austin, TX",
		RadiusMiles:  50,
		SortOrder:    entities.SortDistanceAsc,
		Page:         1,
		Limit:        20,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"downtown", "north"}, ids(result.Results))
	assert.Equal(t, entities.PageMeta{Page: 1, Limit: 20, Total: 2, Pages: 1}, result.Pagination)
	assert.Empty(t, result.GeocodeWarning)
	require.NotNil(t, result.SearchLocation)
	assert.Equal(t, "Austin, TX", result.SearchLocation.Text)
	assert.Equal(t, *austinTX, result.SearchLocation.Coordinate)
	for _, r := range result.Results {
		require.NotNil(t, r.DistanceMiles)
		assert.LessOrEqual(t, *r.DistanceMiles, 50.0)
	}
	catalog.AssertExpectations(t)
	geocoder.AssertExpectations(t)
}

func TestSearchService_SearchProcedures_UngeocodableLocationDegrades(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindOfferings", mock.Anything, mriFilter).Return(mriCatalog(), nil)
	geocoder.On("Geocode", mock.Anything, "Atlantis").Return(nil, providers.ErrLocationNotFound)
	service := newSearchService(catalog, geocoder)

	result, err := service.SearchProcedures(context.Background(), entities.SearchQuery{
		Text:         "mri",
		LocationText: "Atlantis",
		SortOrder:    entities.SortDistanceAsc,
		Page:         1,
		Limit:        20,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"mobile", "gulf", "north", "downtown"}, ids(result.Results))
	assert.Equal(t, entities.GeocodeWarningMessage, result.GeocodeWarning)
	assert.Nil(t, result.SearchLocation)
	for _, r := range result.Results {
		assert.Nil(t, r.DistanceMiles)
	}
}

func TestSearchService_SearchProcedures_NoLocationHasNoWarning(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindOfferings", mock.Anything, mriFilter).Return(mriCatalog(), nil)
	service := newSearchService(catalog, geocoder)

	result, err := service.SearchProcedures(context.Background(), entities.SearchQuery{Text: "MRI", Page: 2, Limit: 3})

	require.NoError(t, err)
	assert.Equal(t, []string{"downtown"}, ids(result.Results))
	assert.Equal(t, entities.PageMeta{Page: 2, Limit: 3, Total: 4, Pages: 2}, result.Pagination)
	assert.Empty(t, result.GeocodeWarning)
	geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestSearchService_SearchProcedures_StoreFailureIsInternal(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindOfferings", mock.Anything, mriFilter).Return(nil, errors.New("connection refused"))
	service := newSearchService(catalog, geocoder)

	result, err := service.SearchProcedures(context.Background(), entities.SearchQuery{Text: "mri", Page: 1, Limit: 20})

	assert.Nil(t, result)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
}

func TestSearchService_SearchProcedures_CancelledContext(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindOfferings", mock.Anything, mriFilter).Return(mriCatalog(), nil).Maybe()
	service := newSearchService(catalog, geocoder)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := service.SearchProcedures(ctx, entities.SearchQuery{Text: "mri", LocationText: "Austin", Page: 1, Limit: 20})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchService_SearchProcedures_IndexResultsArePostFiltered(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	index := new(MockOfferingIndex)

	inactive := mriOffering("closed", "prov-5", 10, austinTX)
	inactive.IsActive = false
	index.On("Search", mock.Anything, mriFilter).Return(append(mriCatalog()[:2], inactive), nil)

	service := newSearchService(catalog, geocoder)
	service.SetOfferingIndex(index)

	result, err := service.SearchProcedures(context.Background(), entities.SearchQuery{Text: "MRI", Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, []string{"north", "downtown"}, ids(result.Results))
	catalog.AssertNotCalled(t, "FindOfferings", mock.Anything, mock.Anything)
}

func TestSearchService_SearchProcedures_IndexFailureFallsBackToCatalog(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	index := new(MockOfferingIndex)
	index.On("Search", mock.Anything, mriFilter).Return(nil, errors.New("typesense unavailable"))
	catalog.On("FindOfferings", mock.Anything, mriFilter).Return(mriCatalog(), nil)

	service := newSearchService(catalog, geocoder)
	service.SetOfferingIndex(index)

	result, err := service.SearchProcedures(context.Background(), entities.SearchQuery{Text: "mri", Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Len(t, result.Results, 4)
	catalog.AssertExpectations(t)
}

func TestSearchService_SearchProviders(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindProviders", mock.Anything, repositories.ProviderFilter{Text: "imaging", ActiveOnly: true}).Return([]*entities.Provider{
		{ID: "p-1", OrganizationName: "Capital Imaging", Locations: []*entities.Location{{ID: "l-1", Coordinate: roundRock, IsActive: true}}},
		{ID: "p-2", OrganizationName: "Gulf Imaging", Locations: []*entities.Location{{ID: "l-2", Coordinate: houstonTX, IsActive: true}}},
	}, nil)
	geocoder.On("Geocode", mock.Anything, "Austin").Return(austinTX, nil)
	service := newSearchService(catalog, geocoder)

	result, err := service.SearchProviders(context.Background(), entities.SearchQuery{
		Text:         "Imaging",
		LocationText: "Austin",
		RadiusMiles:  50,
		SortOrder:    entities.SortDistanceAsc,
		Page:         1,
		Limit:        20,
	})

	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "p-1", result.Results[0].ID)
	assert.Equal(t, 1, result.Pagination.Total)
	require.NotNil(t, result.SearchLocation)
}

func TestSearchService_GetProcedureStatistics_AllOfferings(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	template := &entities.ProcedureTemplate{ID: "tpl-mri", Name: "MRI Brain", IsActive: true}
	catalog.On("FindTemplateByID", mock.Anything, "tpl-mri").Return(template, nil)
	catalog.On("FindOfferingsByTemplate", mock.Anything, "tpl-mri").Return(mriCatalog(), nil)
	service := newSearchService(catalog, geocoder)

	stats, err := service.GetProcedureStatistics(context.Background(), "tpl-mri", "", 0)

	require.NoError(t, err)
	assert.Same(t, template, stats.Template)
	assert.Equal(t, entities.PriceStatistics{Count: 4, Min: 90, Max: 300, Average: 165, Median: 135}, stats.Statistics)
	assert.Nil(t, stats.LocationInfo)
	assert.Empty(t, stats.GeocodeWarning)
}

func TestSearchService_GetProcedureStatistics_WithinRadius(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindTemplateByID", mock.Anything, "tpl-mri").Return(&entities.ProcedureTemplate{ID: "tpl-mri"}, nil)
	catalog.On("FindOfferingsByTemplate", mock.Anything, "tpl-mri").Return(mriCatalog(), nil)
	geocoder.On("Geocode", mock.Anything, "Austin, TX").Return(austinTX, nil)
	service := newSearchService(catalog, geocoder)

	stats, err := service.GetProcedureStatistics(context.Background(), "tpl-mri", "Austin, TX", 25)

	require.NoError(t, err)
	assert.Equal(t, entities.PriceStatistics{Count: 2, Min: 150, Max: 300, Average: 225, Median: 225}, stats.Statistics)
	require.NotNil(t, stats.LocationInfo)
	assert.Equal(t, 25.0, stats.LocationInfo.SearchRadius)
	assert.Equal(t, 2, stats.LocationInfo.ProvidersInRange)
	assert.Equal(t, "Austin, TX", stats.LocationInfo.SearchLocation.Text)
}

func TestSearchService_GetProcedureStatistics_UngeocodableLocation(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindTemplateByID", mock.Anything, "tpl-mri").Return(&entities.ProcedureTemplate{ID: "tpl-mri"}, nil)
	catalog.On("FindOfferingsByTemplate", mock.Anything, "tpl-mri").Return(mriCatalog(), nil)
	geocoder.On("Geocode", mock.Anything, "Atlantis").Return(nil, providers.ErrLocationNotFound)
	service := newSearchService(catalog, geocoder)

	stats, err := service.GetProcedureStatistics(context.Background(), "tpl-mri", "Atlantis", 50)

	require.NoError(t, err)
	assert.Equal(t, 4, stats.Statistics.Count)
	assert.Nil(t, stats.LocationInfo)
	assert.Equal(t, entities.GeocodeWarningMessage, stats.GeocodeWarning)
}

func TestSearchService_GetProcedureStatistics_NoOfferings(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindTemplateByID", mock.Anything, "tpl-rare").Return(&entities.ProcedureTemplate{ID: "tpl-rare"}, nil)
	catalog.On("FindOfferingsByTemplate", mock.Anything, "tpl-rare").Return([]*entities.ProcedureOffering{}, nil)
	service := newSearchService(catalog, geocoder)

	stats, err := service.GetProcedureStatistics(context.Background(), "tpl-rare", "", 0)

	require.NoError(t, err)
	assert.Equal(t, entities.PriceStatistics{}, stats.Statistics)
}

func TestSearchService_GetProcedureStatistics_UnknownTemplate(t *testing.T) {
	catalog := new(MockCatalogRepository)
	geocoder := new(MockGeolocationProvider)
	catalog.On("FindTemplateByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("procedure template not found"))
	service := newSearchService(catalog, geocoder)

	stats, err := service.GetProcedureStatistics(context.Background(), "missing", "", 0)

	assert.Nil(t, stats)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	catalog.AssertNotCalled(t, "FindOfferingsByTemplate", mock.Anything, mock.Anything)
}

func TestSearchService_GetProcedureStatistics_EmptyTemplateID(t *testing.T) {
	service := newSearchService(new(MockCatalogRepository), new(MockGeolocationProvider))

	_, err := service.GetProcedureStatistics(context.Background(), " ", "", 0)

	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}
