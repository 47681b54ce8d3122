package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// ScoresRepository persists finished audience scores.
type ScoresRepository struct {
	db *pgxpool.Pool
}

// NewScoresRepository creates a new scores repository.
func NewScoresRepository(db *pgxpool.Pool) *ScoresRepository {
	return &ScoresRepository{db: db}
}

// InsertRows appends one row per (event, audience). Rescoring the same event
// overwrites the previous row.
func (r *ScoresRepository) InsertRows(ctx context.Context, rows []models.ScoreRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now()

	for _, row := range rows {
		batch.Queue(`
			INSERT INTO audience_scores (event_id, site_domain, score, entities, potential_quartile, pageview_min, pageview_max, scored_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (event_id, site_domain) DO UPDATE SET
				score = EXCLUDED.score,
				entities = EXCLUDED.entities,
				potential_quartile = EXCLUDED.potential_quartile,
				pageview_min = EXCLUDED.pageview_min,
				pageview_max = EXCLUDED.pageview_max,
				scored_at = EXCLUDED.scored_at`,
			row.EventID, row.Audience, row.Score, row.Entities,
			row.Quartile, row.PageviewRange[0], row.PageviewRange[1], now,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert score row: %w", err)
		}
	}

	return nil
}

// ScoringErrorsRepository records scoring failures for later inspection.
type ScoringErrorsRepository struct {
	db *pgxpool.Pool
}

// NewScoringErrorsRepository creates a new scoring errors repository.
func NewScoringErrorsRepository(db *pgxpool.Pool) *ScoringErrorsRepository {
	return &ScoringErrorsRepository{db: db}
}

// Insert records one failure with its stage and message.
func (r *ScoringErrorsRepository) Insert(ctx context.Context, eventID, stage, message string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO scoring_errors (event_id, stage, message, occurred_at)
		VALUES ($1, $2, $3, $4)`,
		eventID, stage, message, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scoring error: %w", err)
	}

	return nil
}
