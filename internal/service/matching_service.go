package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/allermedia/allerai-event-scorer/internal/matching"
	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/internal/observability"
)

// MatchingStore reads the matching inputs and writes resolved matches.
type MatchingStore interface {
	FetchDrafts(ctx context.Context, from, to time.Time) ([]models.Draft, error)
	FetchUsers(ctx context.Context) ([]models.User, error)
	FetchUnmatchedPublications(ctx context.Context, from, to time.Time) ([]models.Publication, error)
	InsertMatches(ctx context.Context, records []models.MatchRecord) error
}

// MatchingService runs one matching pass: drafts created inside the window
// are paired with publications and the best match per publication is written.
type MatchingService struct {
	store   MatchingStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMatchingService creates a matching service.
func NewMatchingService(store MatchingStore, logger *slog.Logger, metrics *observability.Metrics) *MatchingService {
	return &MatchingService{store: store, logger: logger, metrics: metrics}
}

// Run matches publications in [from, to] against drafts created in the same
// window, extended backwards by the publish window so a draft written before
// the period can still claim an early publication. Returns the number of
// match records written.
func (s *MatchingService) Run(ctx context.Context, from, to time.Time) (int, error) {
	drafts, err := s.store.FetchDrafts(ctx, from.Add(-matching.PublishWindow), to)
	if err != nil {
		return 0, err
	}

	users, err := s.store.FetchUsers(ctx)
	if err != nil {
		return 0, err
	}

	pubs, err := s.store.FetchUnmatchedPublications(ctx, from, to)
	if err != nil {
		return 0, err
	}

	pairs := matching.GenerateCandidates(drafts, users, pubs)
	records := matching.Match(pairs)

	if len(records) == 0 {
		s.logger.InfoContext(ctx, "matching pass produced no records",
			"drafts", len(drafts), "publications", len(pubs))

		return 0, nil
	}

	if err := s.store.InsertMatches(ctx, records); err != nil {
		return 0, err
	}

	s.metrics.MatchesWritten.Add(float64(len(records)))
	s.logger.InfoContext(ctx, "matching pass finished",
		"drafts", len(drafts), "publications", len(pubs),
		"candidates", len(pairs), "matches", len(records))

	return len(records), nil
}
