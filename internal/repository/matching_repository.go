package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// MatchingRepository reads the draft, user and publication tables for the
// matching job and writes the resolved matches.
type MatchingRepository struct {
	db *pgxpool.Pool
}

// NewMatchingRepository creates a new matching repository.
func NewMatchingRepository(db *pgxpool.Pool) *MatchingRepository {
	return &MatchingRepository{db: db}
}

// FetchDrafts returns the drafts created inside [from, to].
func (r *MatchingRepository) FetchDrafts(ctx context.Context, from, to time.Time) ([]models.Draft, error) {
	query := `
		SELECT id, configuration_id, created_at, user_id, content, embedding, radar_source_id
		FROM drafts
		WHERE created_at BETWEEN $1 AND $2
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch drafts: %w", err)
	}
	defer rows.Close()

	drafts := []models.Draft{}

	for rows.Next() {
		var draft models.Draft

		var emb nullableEmbedding

		err := rows.Scan(
			&draft.ID, &draft.ConfigurationID, &draft.CreatedAt,
			&draft.UserID, &draft.Content, &emb, &draft.RadarSourceID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}

		draft.Embedding = emb
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drafts: %w", err)
	}

	return drafts, nil
}

// FetchUsers returns all platform users.
func (r *MatchingRepository) FetchUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, first_name, last_name FROM platform_users`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}

	for rows.Next() {
		var user models.User

		if err := rows.Scan(&user.ID, &user.FirstName, &user.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

// FetchUnmatchedPublications returns the publications in [from, to] that have
// no match record yet.
func (r *MatchingRepository) FetchUnmatchedPublications(ctx context.Context, from, to time.Time) ([]models.Publication, error) {
	query := `
		SELECT p.page_id, p.site_domain, p.bodytext, p.author, p.created_by, p.published_ts, p.embedding
		FROM pages p
		WHERE p.published_ts BETWEEN $1 AND $2
		  AND NOT EXISTS (
		    SELECT 1 FROM draft_matches m
		    WHERE m.published_article_id = p.page_id::text
		  )
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch publications: %w", err)
	}
	defer rows.Close()

	pubs := []models.Publication{}

	for rows.Next() {
		var pub models.Publication

		var emb nullableEmbedding

		err := rows.Scan(
			&pub.PageID, &pub.SiteDomain, &pub.BodyText,
			&pub.Author, &pub.CreatedBy, &pub.PublishedAt, &emb,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}

		pub.Embedding = emb
		pubs = append(pubs, pub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publications: %w", err)
	}

	return pubs, nil
}

// InsertMatches appends the resolved match records.
func (r *MatchingRepository) InsertMatches(ctx context.Context, records []models.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, rec := range records {
		batch.Queue(`
			INSERT INTO draft_matches (
				published_article_id, published_text, citation_story_id, draft_text,
				time_decay, decayed_score, decayed_confidence_level,
				similarity, confidence_level, created_by_match,
				created_at, published_at, site, radar_source
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			rec.PublishedArticleID, rec.PublishedText, rec.DraftID, rec.DraftText,
			rec.TimeDecay, rec.DecayedScore, rec.DecayedConfidence,
			rec.Similarity, rec.Confidence, rec.AuthorMatch,
			rec.CreatedAt, rec.PublishedAt, rec.Site, rec.RadarSource,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert match record: %w", err)
		}
	}

	return nil
}
