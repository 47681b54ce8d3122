// The enrich binary backfills missing text embeddings on drafts and
// published articles so the matcher has vectors to compare.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/allermedia/allerai-event-scorer/internal/config"
	"github.com/allermedia/allerai-event-scorer/internal/embeddings"
	"github.com/allermedia/allerai-event-scorer/internal/observability"
	"github.com/allermedia/allerai-event-scorer/internal/repository"
	"github.com/allermedia/allerai-event-scorer/internal/service"
	"github.com/allermedia/allerai-event-scorer/pkg/database"
)

func main() {
	var (
		once  = flag.Bool("once", false, "process a single batch and exit")
		batch = flag.Int("batch", service.DefaultEnrichmentBatch, "rows per batch")
		rps   = flag.Float64("rps", 5, "embedding requests per second")
		mock  = flag.Bool("mock", false, "use deterministic embeddings instead of the OpenAI API")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)

	var client embeddings.Client
	if *mock {
		client = embeddings.NewMockClient()
	} else {
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY is required unless -mock is set")
			os.Exit(1)
		}
		client = embeddings.NewOpenAIClient(cfg.OpenAIAPIKey)
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

	enrichment := service.NewEnrichmentService(
		repository.NewEnrichmentRepository(db),
		client,
		rate.NewLimiter(rate.Limit(*rps), 1),
		logger,
		*batch,
	)

	total := 0

	for {
		n, err := enrichment.Run(ctx)
		if err != nil {
			logger.Error("Enrichment batch failed", "error", err)
			os.Exit(1)
		}

		total += n
		if *once || n == 0 {
			break
		}
	}

	logger.Info("Enrichment complete", "rows", total)
}
