package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/allermedia/allerai-event-scorer/internal/service"
)

// defaultMatchingWindow is the period a scheduled pass covers when the args
// carry no explicit window.
const defaultMatchingWindow = 24 * time.Hour

// MatchingWorker runs draft matching passes queued through River.
type MatchingWorker struct {
	river.WorkerDefaults[MatchingJobArgs]
	service *service.MatchingService
	logger  *slog.Logger
}

// NewMatchingWorker creates a new matching worker.
func NewMatchingWorker(svc *service.MatchingService, logger *slog.Logger) *MatchingWorker {
	return &MatchingWorker{service: svc, logger: logger}
}

// Work runs one matching pass. Failures return the error so River retries.
func (w *MatchingWorker) Work(ctx context.Context, job *river.Job[MatchingJobArgs]) error {
	from, to := job.Args.From, job.Args.To
	if to.IsZero() {
		to = time.Now().UTC()
	}

	if from.IsZero() {
		from = to.Add(-defaultMatchingWindow)
	}

	w.logger.InfoContext(ctx, "matching job started",
		"job_id", job.ID, "from", from, "to", to)

	n, err := w.service.Run(ctx, from, to)
	if err != nil {
		w.logger.ErrorContext(ctx, "matching job failed",
			"job_id", job.ID, "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "matching job finished",
		"job_id", job.ID, "matches", n)

	return nil
}

// NewPeriodicMatchingJob schedules one matching pass per day, including one
// at startup.
func NewPeriodicMatchingJob() *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(defaultMatchingWindow),
		func() (river.JobArgs, *river.InsertOpts) {
			return MatchingJobArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
