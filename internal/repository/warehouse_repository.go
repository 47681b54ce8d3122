package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// DefaultArticlesPerSite bounds the reference corpus to the most recent
// articles of each site.
const DefaultArticlesPerSite = 1000

// WarehouseRepository reads the reference tables that back scoring snapshots.
type WarehouseRepository struct {
	db         *pgxpool.Pool
	perSiteMax int
}

// NewWarehouseRepository creates a warehouse repository. A perSiteMax of 0
// selects DefaultArticlesPerSite.
func NewWarehouseRepository(db *pgxpool.Pool, perSiteMax int) *WarehouseRepository {
	if perSiteMax <= 0 {
		perSiteMax = DefaultArticlesPerSite
	}

	return &WarehouseRepository{db: db, perSiteMax: perSiteMax}
}

// FetchArticles returns the most recent embedded articles per site, newest
// first within each site.
func (r *WarehouseRepository) FetchArticles(ctx context.Context) ([]models.Article, error) {
	query := `
		WITH ranked_articles AS (
			SELECT
				page_id,
				site_domain,
				main_category,
				category,
				sub_category,
				embeddings_en,
				ROW_NUMBER() OVER (PARTITION BY site_domain ORDER BY published_ts DESC) AS rn
			FROM pages
			WHERE page_type = 'Article'
			  AND embeddings_en IS NOT NULL
		)
		SELECT page_id, site_domain, main_category, category, sub_category, embeddings_en
		FROM ranked_articles
		WHERE rn <= $1
	`

	rows, err := r.db.Query(ctx, query, r.perSiteMax)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer rows.Close()

	articles := []models.Article{}

	for rows.Next() {
		var article models.Article

		var emb nullableEmbedding

		err := rows.Scan(
			&article.ArticleID, &article.SiteDomain,
			&article.MainCategory, &article.Category, &article.SubCategory,
			&emb,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		article.Embedding = emb
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	return articles, nil
}

// FetchTagScores returns the full per-site tag frequency table.
func (r *WarehouseRepository) FetchTagScores(ctx context.Context) ([]models.TagScore, error) {
	query := `
		SELECT site, tag, frequency, total_articles, max_frequency, tag_type
		FROM tag_scores
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tag scores: %w", err)
	}
	defer rows.Close()

	scores := []models.TagScore{}

	for rows.Next() {
		var ts models.TagScore

		err := rows.Scan(&ts.Site, &ts.Tag, &ts.Frequency, &ts.TotalArticles, &ts.MaxFrequency, &ts.TagType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag score: %w", err)
		}

		scores = append(scores, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag scores: %w", err)
	}

	return scores, nil
}

// FetchTraffic sums the pageviews each article collected in its first seven
// days after publication.
func (r *WarehouseRepository) FetchTraffic(ctx context.Context) ([]models.TrafficRow, error) {
	query := `
		SELECT
			pv.page_id,
			pv.site_domain,
			SUM(pv.pageview_count)::float8 AS pageviews_first_7_days
		FROM page_views pv
		JOIN pages p ON p.page_id = pv.page_id
		WHERE pv.event_date BETWEEN p.published_ts::date AND p.published_ts::date + 6
		GROUP BY pv.page_id, pv.site_domain
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch traffic: %w", err)
	}
	defer rows.Close()

	traffic := []models.TrafficRow{}

	for rows.Next() {
		var tr models.TrafficRow

		if err := rows.Scan(&tr.ArticleID, &tr.SiteDomain, &tr.Pageviews); err != nil {
			return nil, fmt.Errorf("failed to scan traffic row: %w", err)
		}

		traffic = append(traffic, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating traffic rows: %w", err)
	}

	return traffic, nil
}
