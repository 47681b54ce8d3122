// The matcher binary links editorial drafts to the articles they became.
// It either runs a single matching pass over a time window (-once) or stays
// up as a River worker with a daily periodic job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/allermedia/allerai-event-scorer/internal/config"
	"github.com/allermedia/allerai-event-scorer/internal/jobs"
	"github.com/allermedia/allerai-event-scorer/internal/observability"
	"github.com/allermedia/allerai-event-scorer/internal/repository"
	"github.com/allermedia/allerai-event-scorer/internal/service"
	"github.com/allermedia/allerai-event-scorer/pkg/database"
)

func main() {
	var (
		once = flag.Bool("once", false, "run a single matching pass and exit")
		from = flag.String("from", "", "window start, RFC 3339 (default: 24h before -to)")
		to   = flag.String("to", "", "window end, RFC 3339 (default: now)")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)

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

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	matchingService := service.NewMatchingService(repository.NewMatchingRepository(db), logger, metrics)

	if *once {
		windowFrom, windowTo, err := parseWindow(*from, *to)
		if err != nil {
			logger.Error("Invalid time window", "error", err)
			os.Exit(1)
		}

		n, err := matchingService.Run(ctx, windowFrom, windowTo)
		if err != nil {
			logger.Error("Matching run failed", "error", err)
			os.Exit(1)
		}

		logger.Info("Matching run complete", "matches", n, "from", windowFrom, "to", windowTo)

		return
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewMatchingWorker(matchingService, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
		},
		Workers:      workers,
		ErrorHandler: &jobs.ErrorHandler{Logger: logger},
		JobTimeout:   10 * time.Minute,
		PeriodicJobs: []*river.PeriodicJob{jobs.NewPeriodicMatchingJob()},
	})
	if err != nil {
		logger.Error("Failed to create job client", "error", err)
		os.Exit(1)
	}

	if err := riverClient.Start(ctx); err != nil {
		logger.Error("Failed to start job client", "error", err)
		os.Exit(1)
	}

	logger.Info("Matching worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down matching worker...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := riverClient.Stop(stopCtx); err != nil {
		logger.Error("Job client shutdown failed", "error", err)
	}
}

// parseWindow resolves the -from/-to flags. An empty -to means now, an empty
// -from means 24 hours before the window end.
func parseWindow(fromFlag, toFlag string) (from, to time.Time, err error) {
	to = time.Now().UTC()
	if toFlag != "" {
		to, err = time.Parse(time.RFC3339, toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -to: %w", err)
		}
	}

	from = to.Add(-24 * time.Hour)
	if fromFlag != "" {
		from, err = time.Parse(time.RFC3339, fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -from: %w", err)
		}
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("window start %s is not before end %s", from, to)
	}

	return from, to, nil
}
