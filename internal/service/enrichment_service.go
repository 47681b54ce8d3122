package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/allermedia/allerai-event-scorer/internal/embeddings"
	"github.com/allermedia/allerai-event-scorer/internal/repository"
	"github.com/allermedia/allerai-event-scorer/pkg/textnorm"
)

// DefaultEnrichmentBatch is how many rows one backfill round embeds.
const DefaultEnrichmentBatch = 100

// EnrichmentStore lists rows without embeddings and writes vectors back.
type EnrichmentStore interface {
	ListPendingDrafts(ctx context.Context, limit int) ([]repository.PendingDraft, error)
	SetDraftEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	ListPendingPublications(ctx context.Context, limit int) ([]repository.PendingPublication, error)
	SetPublicationEmbedding(ctx context.Context, pageID string, embedding []float32) error
}

// EnrichmentService backfills embeddings for drafts and publications that
// lack them. Text is normalized before embedding so drafts and published
// articles embed comparably.
type EnrichmentService struct {
	store   EnrichmentStore
	client  embeddings.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	batch   int
}

// NewEnrichmentService creates an enrichment service. A batch of 0 selects
// DefaultEnrichmentBatch.
func NewEnrichmentService(store EnrichmentStore, client embeddings.Client, limiter *rate.Limiter, logger *slog.Logger, batch int) *EnrichmentService {
	if batch <= 0 {
		batch = DefaultEnrichmentBatch
	}

	return &EnrichmentService{
		store:   store,
		client:  client,
		limiter: limiter,
		logger:  logger,
		batch:   batch,
	}
}

// Run backfills one batch of drafts and one batch of publications. Returns
// the number of rows embedded; a full batch suggests another round is due.
func (s *EnrichmentService) Run(ctx context.Context) (int, error) {
	drafts, err := s.backfillDrafts(ctx)
	if err != nil {
		return drafts, err
	}

	pubs, err := s.backfillPublications(ctx)

	return drafts + pubs, err
}

func (s *EnrichmentService) backfillDrafts(ctx context.Context) (int, error) {
	pending, err := s.store.ListPendingDrafts(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	done := 0

	for _, draft := range pending {
		vec, err := s.embed(ctx, draft.Content)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping draft embedding",
				"draft_id", draft.ID, "error", err)

			continue
		}

		if err := s.store.SetDraftEmbedding(ctx, draft.ID, vec); err != nil {
			return done, err
		}

		done++
	}

	return done, nil
}

func (s *EnrichmentService) backfillPublications(ctx context.Context) (int, error) {
	pending, err := s.store.ListPendingPublications(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	done := 0

	for _, pub := range pending {
		vec, err := s.embed(ctx, pub.BodyText)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping publication embedding",
				"page_id", pub.PageID, "error", err)

			continue
		}

		if err := s.store.SetPublicationEmbedding(ctx, pub.PageID, vec); err != nil {
			return done, err
		}

		done++
	}

	return done, nil
}

func (s *EnrichmentService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return s.client.GetEmbedding(ctx, textnorm.Normalize(text))
}
