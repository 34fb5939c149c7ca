package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "availability_hub/internal/adapters/http_server"
	kafkaad "availability_hub/internal/adapters/kafka"
	"availability_hub/internal/adapters/observability"
	redisad "availability_hub/internal/adapters/redis"
	"availability_hub/internal/adapters/supplier"
	"availability_hub/internal/app"
	"availability_hub/internal/domain"
	"availability_hub/internal/pricing"
	"availability_hub/internal/shared"
	mysqlrepo "availability_hub/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "availability-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)

	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	defer rdb.Close()

	suppliers, err := supplier.FromCatalog(cfg.Catalog, cfg.SupplierTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("supplier registry")
	}
	rates, err := pricing.NewStaticRates(cfg.Catalog.CurrencyRates)
	if err != nil {
		log.Fatal().Err(err).Msg("currency rates")
	}

	events := kafkaad.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSearchTopic)
	defer func() {
		if err := events.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka publisher close failed")
		}
	}()

	var enabled []domain.Supplier
	for _, code := range cfg.Catalog.DefaultSuppliers() {
		enabled = append(enabled, domain.Supplier(code))
	}
	settings := app.NewSettingsResolver(repo, redisad.NewCache(rdb, "settings"), cfg.SettingsCacheTTL, app.DefaultSettings(enabled))
	orch := app.NewOrchestrator(
		settings,
		repo,
		suppliers,
		redisad.NewResultStore(rdb, cfg.SearchTTL),
		repo,
		pricing.NewPipeline(rates, repo, domain.NormalizeCurrency(cfg.TargetCurrency)),
		events,
		app.OrchestratorConfig{
			SupplierTimeout:  cfg.SupplierTimeout,
			SearchWorkers:    int64(cfg.SearchWorkers),
			SelectionWorkers: cfg.SelectionWorkers,
		},
	)
	accommodations := app.NewAccommodationService(repo, suppliers, redisad.NewCache(rdb, "accommodations"), cfg.AccommodationTTL)

	// http
	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Search: orch, Accommodations: accommodations})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Strs("suppliers", codes(suppliers.Suppliers())).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	// supplier tasks outlive their requests; let them record a terminal state
	if err := orch.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("supplier tasks still running at shutdown")
	}
	log.Info().Msg("stopped")
}

func codes(ss []domain.Supplier) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
