package routes

import (
	"net/http"

	"github.com/zatekoja/pricefinder/internal/api/handlers"
	"github.com/zatekoja/pricefinder/internal/api/middleware"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler      *handlers.SearchHandler
	geolocationHandler *handlers.GeolocationHandler
	healthHandler      *handlers.HealthHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	geolocationHandler *handlers.GeolocationHandler,
	healthHandler *handlers.HealthHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		searchHandler:      searchHandler,
		geolocationHandler: geolocationHandler,
		healthHandler:      healthHandler,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Search endpoints
	r.mux.HandleFunc("GET /api/search/procedures", r.searchHandler.SearchProcedures)
	r.mux.HandleFunc("GET /api/providers/search", r.searchHandler.SearchProviders)
	r.mux.HandleFunc("GET /api/procedures/{templateId}/statistics", r.searchHandler.GetProcedureStatistics)

	// Geocoding
	r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)

	// Last applied wraps outermost
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
