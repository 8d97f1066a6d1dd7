package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/pricefinder/internal/application/services"
	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

// SearchService defines the handler dependency for catalog search
type SearchService interface {
	SearchProcedures(ctx context.Context, query entities.SearchQuery) (*entities.ProcedureSearchResult, error)
	SearchProviders(ctx context.Context, query entities.SearchQuery) (*entities.ProviderSearchResult, error)
	GetProcedureStatistics(ctx context.Context, templateID, locationText string, radiusMiles float64) (*entities.ProcedureStatistics, error)
}

// SearchHandler handles procedure search, provider search and price statistics
type SearchHandler struct {
	service  SearchService
	defaults services.QueryDefaults
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service SearchService, defaults services.QueryDefaults) *SearchHandler {
	return &SearchHandler{
		service:  service,
		defaults: defaults,
	}
}

type searchData struct {
	SearchLocation *entities.SearchLocation `json:"searchLocation"`
}

type procedureSearchResponse struct {
	Results    []entities.RankedResult `json:"results"`
	Pagination entities.PageMeta       `json:"pagination"`
	Error      string                  `json:"error,omitempty"`
	Data       *searchData             `json:"data,omitempty"`
}

type providerSearchResponse struct {
	Results    []entities.RankedProvider `json:"results"`
	Pagination entities.PageMeta         `json:"pagination"`
	Error      string                    `json:"error,omitempty"`
	Data       *searchData               `json:"data,omitempty"`
}

type statisticsResponse struct {
	Template     *entities.ProcedureTemplate `json:"template"`
	Stats        entities.PriceStatistics    `json:"stats"`
	LocationInfo *entities.LocationInfo      `json:"locationInfo,omitempty"`
	Error        string                      `json:"error,omitempty"`
}

// SearchProcedures handles GET /api/search/procedures
func (h *SearchHandler) SearchProcedures(w http.ResponseWriter, r *http.Request) {
	query := services.ParseSearchQuery(searchParamsFrom(r), h.defaults)

	result, err := h.service.SearchProcedures(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, procedureSearchResponse{
		Results:    result.Results,
		Pagination: result.Pagination,
		Error:      result.GeocodeWarning,
		Data:       dataFor(result.SearchLocation),
	})
}

// SearchProviders handles GET /api/providers/search
func (h *SearchHandler) SearchProviders(w http.ResponseWriter, r *http.Request) {
	defaults := h.defaults
	defaults.SortOrder = entities.SortDistanceAsc
	query := services.ParseSearchQuery(searchParamsFrom(r), defaults)

	result, err := h.service.SearchProviders(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, providerSearchResponse{
		Results:    result.Results,
		Pagination: result.Pagination,
		Error:      result.GeocodeWarning,
		Data:       dataFor(result.SearchLocation),
	})
}

// GetProcedureStatistics handles GET /api/procedures/{templateId}/statistics
func (h *SearchHandler) GetProcedureStatistics(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("templateId")
	if templateID == "" {
		respondWithError(w, http.StatusBadRequest, "template ID is required")
		return
	}

	q := r.URL.Query()
	radius := services.ParseRadius(q.Get("distance"), h.defaults.RadiusMiles)

	stats, err := h.service.GetProcedureStatistics(r.Context(), templateID, q.Get("location"), radius)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, statisticsResponse{
		Template:     stats.Template,
		Stats:        stats.Statistics,
		LocationInfo: stats.LocationInfo,
		Error:        stats.GeocodeWarning,
	})
}

func searchParamsFrom(r *http.Request) services.SearchParams {
	q := r.URL.Query()
	return services.SearchParams{
		Query:      q.Get("query"),
		CategoryID: q.Get("categoryId"),
		Location:   q.Get("location"),
		Distance:   q.Get("distance"),
		Sort:       q.Get("sort"),
		Page:       q.Get("page"),
		Limit:      q.Get("limit"),
	}
}

func dataFor(location *entities.SearchLocation) *searchData {
	if location == nil {
		return nil
	}
	return &searchData{SearchLocation: location}
}
