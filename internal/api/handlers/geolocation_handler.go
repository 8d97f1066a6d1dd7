package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/zatekoja/pricefinder/internal/domain/providers"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
)

// GeolocationHandler exposes the geocoder used by search so clients can
// confirm a location before searching.
type GeolocationHandler struct {
	provider providers.GeolocationProvider
}

// NewGeolocationHandler creates a new geolocation handler.
func NewGeolocationHandler(provider providers.GeolocationProvider) *GeolocationHandler {
	return &GeolocationHandler{provider: provider}
}

type geocodeResponse struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	coords, err := h.provider.Geocode(r.Context(), address)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondWithServiceError(w, r, err)
		return
	case errors.Is(err, providers.ErrLocationNotFound):
		respondWithError(w, http.StatusNotFound, "location not found")
		return
	case errors.Is(err, providers.ErrAmbiguousLocation):
		respondWithError(w, http.StatusUnprocessableEntity, "location is ambiguous, add a city, state or ZIP code")
		return
	default:
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("address", address).Msg("geocoder failed")
		respondWithError(w, http.StatusBadGateway, "failed to geocode address")
		return
	}

	respondWithJSON(w, http.StatusOK, geocodeResponse{
		Address:   address,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	})
}
