package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/confstore/pkg/api"
	"github.com/platinummonkey/confstore/pkg/auth"
	"github.com/platinummonkey/confstore/pkg/config"
	"github.com/platinummonkey/confstore/pkg/keys"
	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/service"
	"github.com/platinummonkey/confstore/pkg/store"
	"github.com/platinummonkey/confstore/pkg/store/postgres"
	"github.com/platinummonkey/confstore/pkg/store/rediscache"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "confstore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// backing store
	db, err := postgres.Connect(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	pgStore, err := postgres.NewStore(db, cfg.Postgres, logger, metrics)
	if err != nil {
		return err
	}

	var repository store.ConfigurationRepository = pgStore
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("invalid redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		repository = rediscache.New(pgStore, redisClient, cfg.Redis.Cache, logger, metrics)
		logger.Info("Redis read cache enabled")
	}

	// token verification
	keyProvider := keys.NewCachedProvider(
		keys.NewHTTPProvider(cfg.Keys.ServiceURL, cfg.Keys.FetchTimeout),
		cfg.Keys.Cache, logger, metrics,
	)
	verifier := auth.NewVerifier(keyProvider)

	svc := service.New(verifier, auth.NewStaticAuthorizer(), repository, logger, metrics)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.NewServer(svc, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux(registry, db, redisClient),
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	stopPoolMetrics := publishPoolMetrics(pgStore)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopPoolMetrics()
		return nil
	})

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("Health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	done := make(chan error, 1)
	go func() { done <- shutdown.WaitForShutdown() }()

	select {
	case err := <-errCh:
		return err
	case err := <-done:
		return err
	}
}

// healthMux serves the probes and the metrics endpoint on the health port
func healthMux(registry *prometheus.Registry, db *sql.DB, redisClient *redis.Client) http.Handler {
	checker := observability.NewHealthChecker(db, redisClient)
	router := mux.NewRouter()
	router.HandleFunc("/healthz", checker.Liveness).Methods("GET")
	router.HandleFunc("/readyz", checker.Readiness).Methods("GET")
	router.Handle("/metrics", observability.Handler(registry)).Methods("GET")
	return router
}

// publishPoolMetrics periodically copies connection pool gauges into
// prometheus, returning a stop function.
func publishPoolMetrics(s *postgres.Store) func() {
	ticker := time.NewTicker(15 * time.Second)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.PublishPoolMetrics()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
