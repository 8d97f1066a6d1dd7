package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/providers"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
)

// DefaultGeocodeTimeout bounds a single geocoder call
const DefaultGeocodeTimeout = 3 * time.Second

// LocationResolver wraps a GeolocationProvider so that geocoding failure is
// an expected, non-fatal outcome.
type LocationResolver struct {
	provider providers.GeolocationProvider
	timeout  time.Duration
	metrics  *observability.Metrics
}

// NewLocationResolver creates a resolver. A nil provider resolves nothing.
func NewLocationResolver(provider providers.GeolocationProvider, timeout time.Duration, metrics *observability.Metrics) *LocationResolver {
	if timeout <= 0 {
		timeout = DefaultGeocodeTimeout
	}
	return &LocationResolver{
		provider: provider,
		timeout:  timeout,
		metrics:  metrics,
	}
}

type geocodeOutcome struct {
	coord *entities.Coordinate
	err   error
}

// Resolve turns free text into a coordinate. It returns (nil, nil) when the
// text is empty or the geocoder fails, times out, or has no usable result.
// The only error returned is the caller's own context error, in which case
// the outstanding geocoder call is cancelled and the request abandoned.
func (r *LocationResolver) Resolve(ctx context.Context, text string) (*entities.Coordinate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil || r.provider == nil {
		return nil, nil
	}

	ctx, span := observability.StartSpan(ctx, "LocationResolver.Resolve")
	defer span.End()

	geoCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan geocodeOutcome, 1)
	go func() {
		coord, err := r.provider.Geocode(geoCtx, text)
		done <- geocodeOutcome{coord: coord, err: err}
	}()

	var outcome geocodeOutcome
	select {
	case outcome = <-done:
	case <-geoCtx.Done():
		outcome = geocodeOutcome{err: geoCtx.Err()}
	}

	if err := ctx.Err(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)
	if outcome.err != nil {
		reason := failureReason(outcome.err)
		observability.RecordGeocodeFailure(ctx, r.metrics, reason)
		logger.Warn().Err(outcome.err).Str("location", text).Str("reason", reason).Msg("geocoding failed, continuing without location filter")
		return nil, nil
	}
	if outcome.coord == nil || !outcome.coord.Valid() {
		observability.RecordGeocodeFailure(ctx, r.metrics, "invalid_result")
		logger.Warn().Str("location", text).Msg("geocoder returned no usable coordinate")
		return nil, nil
	}

	coord := *outcome.coord
	return &coord, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, providers.ErrLocationNotFound):
		return "not_found"
	case errors.Is(err, providers.ErrAmbiguousLocation):
		return "ambiguous"
	default:
		return "provider_error"
	}
}
