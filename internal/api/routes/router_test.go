package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/pricefinder/internal/adapters/providers/geolocation"
	"github.com/zatekoja/pricefinder/internal/api/handlers"
	"github.com/zatekoja/pricefinder/internal/api/routes"
	"github.com/zatekoja/pricefinder/internal/application/services"
	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

type emptySearch struct{}

func (emptySearch) SearchProcedures(context.Context, entities.SearchQuery) (*entities.ProcedureSearchResult, error) {
	return &entities.ProcedureSearchResult{Results: []entities.RankedResult{}}, nil
}

func (emptySearch) SearchProviders(context.Context, entities.SearchQuery) (*entities.ProviderSearchResult, error) {
	return &entities.ProviderSearchResult{Results: []entities.RankedProvider{}}, nil
}

func (emptySearch) GetProcedureStatistics(context.Context, string, string, float64) (*entities.ProcedureStatistics, error) {
	return &entities.ProcedureStatistics{}, nil
}

func TestRouter_RegistersSearchSurface(t *testing.T) {
	router := routes.NewRouter(
		handlers.NewSearchHandler(emptySearch{}, services.DefaultQueryDefaults()),
		handlers.NewGeolocationHandler(geolocation.NewMockGeolocationProvider()),
		handlers.NewHealthHandler(nil),
		[]string{"*"},
		nil,
	)
	handler := router.SetupRoutes()

	for _, path := range []string{
		"/health",
		"/api/search/procedures?query=mri",
		"/api/providers/search",
		"/api/procedures/tpl-1/statistics",
		"/api/geocode?address=Austin,+TX",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search/procedures", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
