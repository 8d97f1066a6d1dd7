package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/pricefinder/internal/api/handlers"
	"github.com/zatekoja/pricefinder/internal/application/services"
	"github.com/zatekoja/pricefinder/internal/domain/entities"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) SearchProcedures(ctx context.Context, query entities.SearchQuery) (*entities.ProcedureSearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProcedureSearchResult), args.Error(1)
}

func (m *MockSearchService) SearchProviders(ctx context.Context, query entities.SearchQuery) (*entities.ProviderSearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProviderSearchResult), args.Error(1)
}

func (m *MockSearchService) GetProcedureStatistics(ctx context.Context, templateID, locationText string, radiusMiles float64) (*entities.ProcedureStatistics, error) {
	args := m.Called(ctx, templateID, locationText, radiusMiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProcedureStatistics), args.Error(1)
}

func newTestMux(service handlers.SearchService) *http.ServeMux {
	defaults := services.DefaultQueryDefaults()
	defaults.MaxLimit = 100
	handler := handlers.NewSearchHandler(service, defaults)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search/procedures", handler.SearchProcedures)
	mux.HandleFunc("GET /api/providers/search", handler.SearchProviders)
	mux.HandleFunc("GET /api/procedures/{templateId}/statistics", handler.GetProcedureStatistics)
	return mux
}

func serve(mux http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSearchHandler_SearchProcedures_ParsesQueryAndReturnsContract(t *testing.T) {
	service := new(MockSearchService)
	distance := 2.5
	service.On("SearchProcedures", mock.Anything, entities.SearchQuery{
		Text:         "MRI",
		CategoryID:   "cat-imaging",
		LocationText: "Austin, TX",
		RadiusMiles:  25,
		SortOrder:    entities.SortDistanceAsc,
		Page:         2,
		Limit:        5,
	}).Return(&entities.ProcedureSearchResult{
		Results: []entities.RankedResult{{
			ProcedureOffering: &entities.ProcedureOffering{ID: "off-1", Price: decimal.NewFromInt(300)},
			DistanceMiles:     &distance,
		}},
		Pagination: entities.PageMeta{Page: 2, Limit: 5, Total: 6, Pages: 2},
		SearchLocation: &entities.SearchLocation{
			Coordinate: entities.Coordinate{Latitude: 30.2672, Longitude: -97.7431},
			Text:       "Austin, TX",
		},
	}, nil)

	rec := serve(newTestMux(service), "/api/search/procedures?query=MRI&categoryId=cat-imaging&location=Austin,+TX&distance=25&sort=distance_asc&page=2&limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotContains(t, body, "error")
	assert.Equal(t, map[string]interface{}{"page": 2.0, "limit": 5.0, "total": 6.0, "pages": 2.0}, body["pagination"])

	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "off-1", first["id"])
	assert.Equal(t, 2.5, first["distance_miles"])

	location := body["data"].(map[string]interface{})["searchLocation"].(map[string]interface{})
	assert.Equal(t, "Austin, TX", location["text"])
	assert.Equal(t, 30.2672, location["latitude"])
	service.AssertExpectations(t)
}

func TestSearchHandler_SearchProcedures_GeocodeWarning(t *testing.T) {
	service := new(MockSearchService)
	service.On("SearchProcedures", mock.Anything, mock.MatchedBy(func(q entities.SearchQuery) bool {
		return q.LocationText == "Atlantis" && q.RadiusMiles == 50 && q.Page == 1 && q.Limit == 20
	})).Return(&entities.ProcedureSearchResult{
		Results:        []entities.RankedResult{},
		Pagination:     entities.PageMeta{Page: 1, Limit: 20},
		GeocodeWarning: entities.GeocodeWarningMessage,
	}, nil)

	rec := serve(newTestMux(service), "/api/search/procedures?location=Atlantis&distance=abc&page=-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, entities.GeocodeWarningMessage, body["error"])
	assert.Equal(t, []interface{}{}, body["results"])
	assert.NotContains(t, body, "data")
}

func TestSearchHandler_SearchProcedures_InternalError(t *testing.T) {
	service := new(MockSearchService)
	service.On("SearchProcedures", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewInternalError("failed to load catalog candidates", errors.New("dial tcp: refused")))

	rec := serve(newTestMux(service), "/api/search/procedures?query=mri")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestSearchHandler_SearchProcedures_Cancelled(t *testing.T) {
	service := new(MockSearchService)
	service.On("SearchProcedures", mock.Anything, mock.Anything).Return(nil, context.Canceled)

	rec := serve(newTestMux(service), "/api/search/procedures?location=Austin")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchHandler_SearchProviders_DefaultsToDistanceSort(t *testing.T) {
	service := new(MockSearchService)
	service.On("SearchProviders", mock.Anything, mock.MatchedBy(func(q entities.SearchQuery) bool {
		return q.SortOrder == entities.SortDistanceAsc && q.Text == "imaging"
	})).Return(&entities.ProviderSearchResult{
		Results:    []entities.RankedProvider{{Provider: &entities.Provider{ID: "p-1", OrganizationName: "Capital Imaging"}}},
		Pagination: entities.PageMeta{Page: 1, Limit: 20, Total: 1, Pages: 1},
	}, nil)

	rec := serve(newTestMux(service), "/api/providers/search?query=imaging")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	first := body["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Capital Imaging", first["organization_name"])
	assert.Nil(t, first["distance_miles"])
}

func TestSearchHandler_GetProcedureStatistics(t *testing.T) {
	service := new(MockSearchService)
	service.On("GetProcedureStatistics", mock.Anything, "tpl-mri", "Austin, TX", 10.0).Return(&entities.ProcedureStatistics{
		Template:   &entities.ProcedureTemplate{ID: "tpl-mri", Name: "MRI Brain"},
		Statistics: entities.PriceStatistics{Count: 4, Min: 90, Max: 300, Average: 165, Median: 135},
		LocationInfo: &entities.LocationInfo{
			SearchLocation:   entities.SearchLocation{Coordinate: entities.Coordinate{Latitude: 30.2672, Longitude: -97.7431}, Text: "Austin, TX"},
			SearchRadius:     10,
			ProvidersInRange: 3,
		},
	}, nil)

	rec := serve(newTestMux(service), "/api/procedures/tpl-mri/statistics?location=Austin,+TX&distance=10")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"count": 4.0, "min": 90.0, "max": 300.0, "average": 165.0, "median": 135.0}, body["stats"])
	info := body["locationInfo"].(map[string]interface{})
	assert.Equal(t, 3.0, info["providersInRange"])
	assert.Equal(t, 10.0, info["searchRadius"])
	assert.Equal(t, "MRI Brain", body["template"].(map[string]interface{})["name"])
	assert.NotContains(t, body, "error")
}

func TestSearchHandler_GetProcedureStatistics_NotFound(t *testing.T) {
	service := new(MockSearchService)
	service.On("GetProcedureStatistics", mock.Anything, "missing", "", 50.0).
		Return(nil, apperrors.NewNotFoundError("procedure template not found"))

	rec := serve(newTestMux(service), "/api/procedures/missing/statistics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "procedure template not found")
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	healthy := handlers.NewHealthHandler(map[string]handlers.Pinger{"postgres": stubPinger{}})
	rec := httptest.NewRecorder()
	healthy.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})
	rec = httptest.NewRecorder()
	degraded.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
