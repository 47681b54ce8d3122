package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PendingDraft is a draft awaiting an embedding.
type PendingDraft struct {
	ID      uuid.UUID
	Content string
}

// PendingPublication is a publication awaiting an embedding.
type PendingPublication struct {
	PageID   string
	BodyText string
}

// EnrichmentRepository backs the embedding backfill: it lists rows without an
// embedding and writes the computed vectors back.
type EnrichmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrichmentRepository creates a new enrichment repository.
func NewEnrichmentRepository(db *pgxpool.Pool) *EnrichmentRepository {
	return &EnrichmentRepository{db: db}
}

// ListPendingDrafts returns up to limit drafts with content but no embedding.
func (r *EnrichmentRepository) ListPendingDrafts(ctx context.Context, limit int) ([]PendingDraft, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, content FROM drafts
		WHERE embedding IS NULL AND trim(content) != ''
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending drafts: %w", err)
	}
	defer rows.Close()

	drafts := []PendingDraft{}

	for rows.Next() {
		var d PendingDraft

		if err := rows.Scan(&d.ID, &d.Content); err != nil {
			return nil, fmt.Errorf("failed to scan pending draft: %w", err)
		}

		drafts = append(drafts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending drafts: %w", err)
	}

	return drafts, nil
}

// SetDraftEmbedding stores the embedding for one draft.
func (r *EnrichmentRepository) SetDraftEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	_, err := r.db.Exec(ctx,
		`UPDATE drafts SET embedding = $2 WHERE id = $1`,
		id, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to set draft embedding: %w", err)
	}

	return nil
}

// ListPendingPublications returns up to limit publications with body text but
// no embedding.
func (r *EnrichmentRepository) ListPendingPublications(ctx context.Context, limit int) ([]PendingPublication, error) {
	rows, err := r.db.Query(ctx, `
		SELECT page_id, bodytext FROM pages
		WHERE embedding IS NULL AND trim(bodytext) != ''
		ORDER BY published_ts
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending publications: %w", err)
	}
	defer rows.Close()

	pubs := []PendingPublication{}

	for rows.Next() {
		var p PendingPublication

		if err := rows.Scan(&p.PageID, &p.BodyText); err != nil {
			return nil, fmt.Errorf("failed to scan pending publication: %w", err)
		}

		pubs = append(pubs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending publications: %w", err)
	}

	return pubs, nil
}

// SetPublicationEmbedding stores the embedding for one publication.
func (r *EnrichmentRepository) SetPublicationEmbedding(ctx context.Context, pageID string, embedding []float32) error {
	_, err := r.db.Exec(ctx,
		`UPDATE pages SET embedding = $2 WHERE page_id = $1`,
		pageID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to set publication embedding: %w", err)
	}

	return nil
}
