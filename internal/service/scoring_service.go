// Package service orchestrates scoring and matching over the repositories,
// the scoring engine and the platform client.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/internal/observability"
	"github.com/allermedia/allerai-event-scorer/internal/refdata"
	"github.com/allermedia/allerai-event-scorer/internal/scorererrors"
	"github.com/allermedia/allerai-event-scorer/internal/scoring"
)

const (
	// dedupeSize bounds the message-id window used to drop redelivered events.
	dedupeSize = 10000
	dedupeTTL  = time.Hour
)

// SnapshotProvider hands out reference-data snapshots.
type SnapshotProvider interface {
	Get(ctx context.Context) (*refdata.Snapshot, error)
}

// ScorePusher delivers finished rows to the AI platform.
type ScorePusher interface {
	Push(ctx context.Context, rows []models.ScoreRow) error
}

// ScoreStore persists finished rows.
type ScoreStore interface {
	InsertRows(ctx context.Context, rows []models.ScoreRow) error
}

// ErrorSink records scoring failures for later inspection.
type ErrorSink interface {
	Insert(ctx context.Context, eventID, stage, message string) error
}

// ScoringService scores one event end to end: snapshot, engine, platform
// push, persistence. Redelivered messages are dropped by message id.
type ScoringService struct {
	snapshots SnapshotProvider
	engine    *scoring.Engine
	pusher    ScorePusher
	store     ScoreStore
	errors    ErrorSink
	logger    *slog.Logger
	metrics   *observability.Metrics
	seen      *expirable.LRU[string, struct{}]
}

// NewScoringService creates a scoring service.
func NewScoringService(
	snapshots SnapshotProvider,
	engine *scoring.Engine,
	pusher ScorePusher,
	store ScoreStore,
	errorSink ErrorSink,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *ScoringService {
	return &ScoringService{
		snapshots: snapshots,
		engine:    engine,
		pusher:    pusher,
		store:     store,
		errors:    errorSink,
		logger:    logger,
		metrics:   metrics,
		seen:      expirable.NewLRU[string, struct{}](dedupeSize, nil, dedupeTTL),
	}
}

// HandleEvent scores one incoming event. A messageID that was already
// processed is dropped without rescoring; an empty messageID disables the
// check. A scoring failure is recorded in the error sink and returned.
func (s *ScoringService) HandleEvent(ctx context.Context, messageID string, event models.Event) ([]models.ScoreRow, error) {
	if messageID != "" && s.seen.Contains(messageID) {
		s.metrics.DuplicateEvents.Inc()
		s.logger.InfoContext(ctx, "dropping redelivered event",
			"message_id", messageID, "event_id", event.ArticleID)

		return nil, nil
	}

	start := time.Now()

	rows, err := s.score(ctx, event)
	s.metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.EventsScored.WithLabelValues("error").Inc()
		s.recordFailure(ctx, event.ArticleID, err)

		return nil, err
	}

	s.metrics.EventsScored.WithLabelValues("ok").Inc()

	if messageID != "" {
		s.seen.Add(messageID, struct{}{})
	}

	s.logger.InfoContext(ctx, "event scored",
		"event_id", event.ArticleID, "audiences", len(rows),
		"duration", time.Since(start).String())

	return rows, nil
}

func (s *ScoringService) score(ctx context.Context, event models.Event) ([]models.ScoreRow, error) {
	snapshot, err := s.snapshots.Get(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.engine.ScoreEvent(event, snapshot.Articles, snapshot.TagScores, snapshot.Traffic)
	if err != nil {
		return nil, err
	}

	if err := s.pusher.Push(ctx, rows); err != nil {
		s.metrics.PushFailures.Inc()

		return nil, err
	}

	if err := s.store.InsertRows(ctx, rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// recordFailure classifies the error into a stage and persists it. A sink
// failure is only logged; the original error is what callers act on.
func (s *ScoringService) recordFailure(ctx context.Context, eventID string, err error) {
	stage := "internal"

	switch {
	case errors.Is(err, scorererrors.ErrValidation):
		stage = "validation"
	case errors.Is(err, scorererrors.ErrData):
		stage = "reference_data"
	}

	s.logger.ErrorContext(ctx, "event scoring failed",
		"event_id", eventID, "stage", stage, "error", err)

	if sinkErr := s.errors.Insert(ctx, eventID, stage, err.Error()); sinkErr != nil {
		s.logger.ErrorContext(ctx, "failed to record scoring error",
			"event_id", eventID, "error", sinkErr)
	}
}
