// main is the entry point of the Homeowners API.
//
// Startup sequence:
//  1. Load configuration (YAML file and/or environment)
//  2. Initialise the logger
//  3. Compile the XML schemas
//  4. Open the configured storage backend
//  5. Build metrics and the geocoding client
//  6. Register routes and middleware, start the HTTP server
//  7. Block until SIGINT/SIGTERM, then shut down gracefully
//
// Running the server:
//
//	go run ./cmd/homeowners-api --config=config/local.yaml
//
// or, with every setting in the environment:
//
//	DBURI=mongodb://localhost:27017 APIKEY=... go run ./cmd/homeowners-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/homeowners-api/internal/config"
	"github.com/aanand-mishra/homeowners-api/internal/enrichment"
	"github.com/aanand-mishra/homeowners-api/internal/http/handlers/health"
	"github.com/aanand-mishra/homeowners-api/internal/http/handlers/homeowner"
	"github.com/aanand-mishra/homeowners-api/internal/http/middleware"
	"github.com/aanand-mishra/homeowners-api/internal/metrics"
	"github.com/aanand-mishra/homeowners-api/internal/storage"
	"github.com/aanand-mishra/homeowners-api/internal/storage/mongo"
	"github.com/aanand-mishra/homeowners-api/internal/storage/sqlite"
	"github.com/aanand-mishra/homeowners-api/internal/xmlschema"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Set as the default so packages can log through slog directly.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting homeowners-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	// ── 3. Compile Schemas ────────────────────────────────────────────────
	// Before storage, so a failure here leaves no connection behind.
	schemas, err := xmlschema.New()
	if err != nil {
		log.Error("failed to compile xml schemas", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// ── 4. Initialise Storage ─────────────────────────────────────────────
	store, err := openStorage(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		schemas.Close()
		os.Exit(1)
	}

	// ── 5. Metrics and enrichment ─────────────────────────────────────────

	m := metrics.New(prometheus.DefaultRegisterer)

	if cfg.Geocoder.APIKey == "" {
		log.Warn("no geocoder api key configured, every write will fail with 422")
	}
	enricher := enrichment.New(
		enrichment.NewGeoapify(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, cfg.Geocoder.Timeout),
		enrichment.WithMetrics(m),
	)

	// ── 6. Register HTTP Routes ───────────────────────────────────────────
	//   POST   /homeowners          create from XML
	//   GET    /homeowners          list all
	//   GET    /homeowners/search   search by name and/or address
	//   GET    /homeowners/{id}     get one
	//   PUT    /homeowners/{id}     partial update from XML
	//   DELETE /homeowners/{id}     delete one
	//   DELETE /homeowners          delete many from an XML id list
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logging(m))

	homeowner.Register(router, store, schemas, enricher)
	router.Handle("/healthz", health.Handler()).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
	}

	if err := store.Close(ctx); err != nil {
		log.Error("failed to close storage", slog.String("error", err.Error()))
	}
	schemas.Close()

	log.Info("server stopped gracefully")
}

// openStorage builds the backend selected by cfg.Storage.Driver.
func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("storage initialised", slog.String("path", cfg.Storage.Path))
		return s, nil

	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		m, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("storage initialised",
			slog.String("database", cfg.Storage.Database),
			slog.String("collection", cfg.Storage.Collection))
		return m, nil
	}
}

// setupLogger returns a text logger at debug level for dev, and JSON
// loggers for staging (debug) and prod (info).
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
