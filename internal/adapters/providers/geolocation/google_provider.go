package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/providers"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

const (
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultHTTPTimeout = 8 * time.Second
)

// GoogleGeolocationProvider implements the GeolocationProvider using the Google Geocoding API.
type GoogleGeolocationProvider struct {
	apiKey     string
	region     string
	httpClient *http.Client
	baseURL    string
}

// NewGoogleGeolocationProvider creates a new Google geolocation provider.
func NewGoogleGeolocationProvider(apiKey, region string) *GoogleGeolocationProvider {
	return NewGoogleGeolocationProviderWithOptions(apiKey, region, googleGeocodeURL, nil)
}

// NewGoogleGeolocationProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleGeolocationProviderWithOptions(apiKey, region, baseURL string, httpClient *http.Client) *GoogleGeolocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleGeolocationProvider{
		apiKey:     apiKey,
		region:     region,
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Geocode converts an address to coordinates.
//
// ZERO_RESULTS maps to ErrLocationNotFound. Several results where the first
// is only a partial match map to ErrAmbiguousLocation.
func (g *GoogleGeolocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, providers.ErrLocationNotFound
	}

	params := url.Values{"address": []string{trimmed}}
	if g.region != "" {
		params.Set("region", g.region)
	}

	resp, err := g.doGeocodeRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, providers.ErrLocationNotFound
	}
	if len(resp.Results) > 1 && resp.Results[0].PartialMatch {
		return nil, fmt.Errorf("%w: %d candidates for %q", providers.ErrAmbiguousLocation, len(resp.Results), trimmed)
	}

	loc := resp.Results[0].Geometry.Location
	return &entities.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

func (g *GoogleGeolocationProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, apperrors.NewExternalError("google maps api key is required", nil)
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	switch payload.Status {
	case "OK":
		return &payload, nil
	case "ZERO_RESULTS":
		return nil, providers.ErrLocationNotFound
	default:
		msg := "geocode request failed: " + payload.Status
		if payload.ErrorMessage != "" {
			msg += " - " + payload.ErrorMessage
		}
		return nil, apperrors.NewExternalError(msg, nil)
	}
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	PartialMatch     bool           `json:"partial_match"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
