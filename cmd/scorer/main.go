// The scorer binary serves the event scoring API: pushed events are scored
// against every audience, delivered to the AI platform and persisted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/allermedia/allerai-event-scorer/internal/api/handlers"
	"github.com/allermedia/allerai-event-scorer/internal/api/middleware"
	"github.com/allermedia/allerai-event-scorer/internal/config"
	"github.com/allermedia/allerai-event-scorer/internal/observability"
	"github.com/allermedia/allerai-event-scorer/internal/platform"
	"github.com/allermedia/allerai-event-scorer/internal/refdata"
	"github.com/allermedia/allerai-event-scorer/internal/repository"
	"github.com/allermedia/allerai-event-scorer/internal/scoring"
	"github.com/allermedia/allerai-event-scorer/internal/service"
	"github.com/allermedia/allerai-event-scorer/pkg/database"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)

	tracerProvider, err := observability.NewTracerProvider(ctx, "event-scorer", cfg.TracingEnabled)
	if err != nil {
		logger.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}),
	)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	weights, err := scoring.LoadWeightConfig(cfg.WeightConfigPath)
	if err != nil {
		logger.Error("Failed to load weight configuration", "path", cfg.WeightConfigPath, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	warehouse := repository.NewWarehouseRepository(db, cfg.ArticlesPerSite)
	cache := refdata.NewCache(warehouse, logger,
		refdata.WithTTL(time.Duration(cfg.SnapshotTTLSeconds)*time.Second),
	)

	engine := scoring.NewEngine(scoring.EngineParams{
		Weights:        weights,
		SimilarityTopN: cfg.SimilarityTopN,
		PotentialTopN:  cfg.PotentialTopN,
		StrictTags:     cfg.StrictTags,
	})

	pusher := platform.NewClient(platform.ClientOptions{
		Endpoint: cfg.PlatformEndpoint,
		APIKey:   cfg.PlatformAPIKey,
	})

	scoringService := service.NewScoringService(
		cache,
		engine,
		pusher,
		repository.NewScoresRepository(db),
		repository.NewScoringErrorsRepository(db),
		logger,
		metrics,
	)

	scoreHandler := handlers.NewScoreHandler(scoringService, logger)
	healthHandler := handlers.NewHealthHandler()

	// No auth on /health and /metrics, API key on /v1/.
	public := http.NewServeMux()
	public.HandleFunc("GET /health", healthHandler.Check)
	public.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/events", scoreHandler.HandlePush)

	mux := http.NewServeMux()
	mux.Handle("/v1/", middleware.Auth(cfg.APIKey)(protected))
	mux.Handle("/", public)

	// Logging runs inside otelhttp so access logs get trace_id/span_id from context.
	var handler http.Handler = middleware.Logging(logger)(mux)
	handler = otelhttp.NewHandler(handler, "event-scorer",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	)
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := observability.ShutdownTracerProvider(shutdownCtx, tracerProvider); err != nil {
		logger.Error("Tracer provider shutdown failed", "error", err)
	}

	logger.Info("Server exited")
}
