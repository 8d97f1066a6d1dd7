package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/pricefinder"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount        metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	SearchCount         metric.Int64Counter
	SearchCandidates    metric.Int64Histogram
	GeocodeFailureCount metric.Int64Counter
	GeocodeCacheHits    metric.Int64Counter
	GeocodeCacheMisses  metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics export and runtime instrumentation
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Join(err, tracerProvider.Shutdown(ctx))
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		return nil, errors.Join(err, tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	searchCount, err := meter.Int64Counter(
		"search.request.count",
		metric.WithDescription("Number of catalog searches by operation and outcome"),
	)
	if err != nil {
		return nil, err
	}

	searchCandidates, err := meter.Int64Histogram(
		"search.candidates",
		metric.WithDescription("Number of candidates loaded from the catalog per search"),
	)
	if err != nil {
		return nil, err
	}

	geocodeFailures, err := meter.Int64Counter(
		"geocode.failure.count",
		metric.WithDescription("Number of location strings that could not be resolved"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"geocode.cache.hit.count",
		metric.WithDescription("Number of geocode cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"geocode.cache.miss.count",
		metric.WithDescription("Number of geocode cache misses"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:        requestCount,
		RequestDuration:     requestDuration,
		SearchCount:         searchCount,
		SearchCandidates:    searchCandidates,
		GeocodeFailureCount: geocodeFailures,
		GeocodeCacheHits:    cacheHits,
		GeocodeCacheMisses:  cacheMisses,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records a metric with attributes
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordSearch records a completed search operation
func RecordSearch(ctx context.Context, metrics *Metrics, operation, outcome string, candidates int) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("search.operation", operation),
		attribute.String("search.outcome", outcome),
	)
	metrics.SearchCount.Add(ctx, 1, attrs)
	metrics.SearchCandidates.Record(ctx, int64(candidates), metric.WithAttributes(attribute.String("search.operation", operation)))
}

// RecordGeocodeFailure records a location string that did not resolve
func RecordGeocodeFailure(ctx context.Context, metrics *Metrics, reason string) {
	if metrics == nil {
		return
	}
	metrics.GeocodeFailureCount.Add(ctx, 1, metric.WithAttributes(attribute.String("geocode.reason", reason)))
}

// RecordGeocodeCache records a geocode cache lookup
func RecordGeocodeCache(ctx context.Context, metrics *Metrics, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.GeocodeCacheHits.Add(ctx, 1)
		return
	}
	metrics.GeocodeCacheMisses.Add(ctx, 1)
}
