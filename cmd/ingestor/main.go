package main

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"availability_hub/internal/adapters/observability"
	redisad "availability_hub/internal/adapters/redis"
	"availability_hub/internal/adapters/supplier"
	"availability_hub/internal/app"
	"availability_hub/internal/shared"
	mysqlrepo "availability_hub/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "availability-ingestor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")
	repo := mysqlrepo.New(db)

	suppliers, err := supplier.FromCatalog(cfg.Catalog, cfg.SupplierTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("supplier registry")
	}

	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()
	ing := app.NewIngestionService(suppliers, repo, redisad.NewCache(rdb, "accommodations")).
		WithLocker(redisad.NewLocker(rdb, 2*time.Minute))

	listings, err := repo.ListMappedAccommodations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list mapped accommodations")
	}
	log.Info().
		Int("listings", len(listings)).
		Int("workers", cfg.IngestWorkers).
		Msg("ingestor starting")

	sem := semaphore.NewWeighted(int64(cfg.IngestWorkers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, l := range listings {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := ing.IngestAccommodation(ctx, l.Supplier, l.AccommodationID); err != nil {
				failed.Add(1)
				log.Warn().Str("supplier", string(l.Supplier)).Str("accommodation_id", l.AccommodationID).Err(err).Msg("ingest failed")
				return
			}
			log.Debug().Str("supplier", string(l.Supplier)).Str("accommodation_id", l.AccommodationID).Msg("ingest ok")
		}()
	}

	wg.Wait()
	log.Info().Int64("failed", failed.Load()).Msg("ingestion completed")
}
