package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/pricefinder/internal/adapters/database"
	"github.com/zatekoja/pricefinder/internal/adapters/search"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
	"github.com/zatekoja/pricefinder/pkg/config"
)

const indexWorkers = 8

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Str("interval", intervalValue).Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.OfferingsCollection).Msg("reset requested, deleting collection")
		if err := tsClient.DropOfferings(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	index := search.NewTypesenseAdapter(tsClient)
	if err := index.InitSchema(ctx); err != nil {
		return err
	}

	// Inactive offerings are indexed too; the document carries is_active.
	catalog := database.NewCatalogAdapter(pgClient)
	offerings, err := catalog.FindOfferings(ctx, repositories.OfferingFilter{})
	if err != nil {
		return err
	}

	log.Info().Int("offerings", len(offerings)).Msg("indexing offerings")

	var indexed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)
	for _, offering := range offerings {
		if offering == nil {
			continue
		}
		g.Go(func() error {
			if err := index.Index(gctx, offering); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Warn().Err(err).Str("offering_id", offering.ID).Msg("failed to index offering")
				return nil
			}
			indexed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Int64("indexed", indexed.Load()).Int64("failed", failed.Load()).Msg("indexing finished")

	// Documents for offerings deleted from the catalog are not touched by upserts.
	keep := make(map[string]struct{}, len(offerings))
	for _, offering := range offerings {
		if offering != nil {
			keep[offering.ID] = struct{}{}
		}
	}
	pruned, err := index.Prune(ctx, keep)
	if err != nil {
		return err
	}
	log.Info().Int("pruned", pruned).Msg("stale documents removed")
	return nil
}
