package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/zatekoja/pricefinder/internal/adapters/cache"
	"github.com/zatekoja/pricefinder/internal/adapters/database"
	"github.com/zatekoja/pricefinder/internal/adapters/providers/geolocation"
	"github.com/zatekoja/pricefinder/internal/adapters/search"
	"github.com/zatekoja/pricefinder/internal/api/handlers"
	"github.com/zatekoja/pricefinder/internal/api/routes"
	"github.com/zatekoja/pricefinder/internal/application/services"
	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/providers"
	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/redis"
	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
	"github.com/zatekoja/pricefinder/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	var shutdownOTEL func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdownOTEL, err = observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize OpenTelemetry")
		} else {
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer pgClient.Close()

	checks := map[string]handlers.Pinger{"postgres": pgClient}

	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, geocode cache disabled")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			checks["redis"] = redisClient
		}
	}

	var geocoder providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		geocoder = geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, cfg.Geolocation.Region)
	default:
		geocoder = geolocation.NewMockGeolocationProvider()
	}
	if cacheProvider != nil && cfg.Geolocation.CacheTTL > 0 {
		geocoder = geolocation.NewCachedGeolocationProvider(
			geocoder,
			cacheProvider,
			cfg.Geolocation.CacheTTL,
			cfg.Geolocation.NegativeCacheTTL,
			metrics,
		)
	}
	log.Info().Str("provider", cfg.Geolocation.Provider).Bool("cached", cacheProvider != nil).Msg("geocoder configured")

	searchService := services.NewSearchService(
		database.NewCatalogAdapter(pgClient),
		services.NewLocationResolver(geocoder, cfg.Geolocation.Timeout, metrics),
		services.NewProximityRanker(language.Make(cfg.Search.CollationLanguage)),
		metrics,
	)

	if cfg.Search.Backend == "typesense" {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable, searching the catalog store directly")
		} else {
			index := search.NewTypesenseAdapter(tsClient)
			if err := index.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to initialize typesense schema")
			}
			searchService.SetOfferingIndex(index)
			checks["typesense"] = tsClient
		}
	}

	defaults := services.QueryDefaults{
		RadiusMiles: cfg.Search.DefaultRadiusMiles,
		Limit:       cfg.Search.DefaultLimit,
		MaxLimit:    cfg.Search.MaxLimit,
		SortOrder:   entities.SortPriceAsc,
	}

	router := routes.NewRouter(
		handlers.NewSearchHandler(searchService, defaults),
		handlers.NewGeolocationHandler(geocoder),
		handlers.NewHealthHandler(checks),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Server.Env).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if shutdownOTEL != nil {
		if err := shutdownOTEL(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down OpenTelemetry")
		}
	}

	log.Info().Msg("server exited")
}
