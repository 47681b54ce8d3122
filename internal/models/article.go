// Package models defines the data model shared by the scoring and matching
// pipelines: cached candidate articles, incoming events, reference tables,
// drafts, and the records both engines produce.
package models

import (
	"time"
)

// Article is a cached candidate article used as the comparison universe for
// event scoring. Nullable columns come through as pointers; an Article with a
// nil Embedding is excluded from similarity scoring.
type Article struct {
	ArticleID    string    `json:"article_id"`
	SiteDomain   string    `json:"site_domain"`
	MainCategory *string   `json:"main_category,omitempty"`
	Category     *string   `json:"category,omitempty"`
	SubCategory  *string   `json:"sub_category,omitempty"`
	Embedding    []float32 `json:"embeddings_en,omitempty"`
}

// Clone returns a deep copy; cache snapshots hand out copies so callers can
// never mutate shared state.
func (a Article) Clone() Article {
	c := a
	c.MainCategory = cloneStringPtr(a.MainCategory)
	c.Category = cloneStringPtr(a.Category)
	c.SubCategory = cloneStringPtr(a.SubCategory)

	if a.Embedding != nil {
		c.Embedding = make([]float32, len(a.Embedding))
		copy(c.Embedding, a.Embedding)
	}

	return c
}

// Event is the scoring input: one editorial article (published or drafted)
// whose relevance is scored against every audience.
type Event struct {
	ArticleID    string    `json:"article_id"    validate:"required"`
	SiteDomain   string    `json:"site_domain"`
	MainCategory *string   `json:"main_category,omitempty"`
	Category     *string   `json:"category,omitempty"`
	SubCategory  *string   `json:"sub_category,omitempty"`
	Embedding    []float32 `json:"embeddings_en" validate:"required,min=1"`
	BodyText     string    `json:"bodytext"`
}

// TagScore is one row of the per-site tag frequency table, used read-only.
type TagScore struct {
	Site          string  `json:"site"`
	Tag           string  `json:"tag"`
	Frequency     float64 `json:"frequency"`
	TotalArticles int64   `json:"total_articles"`
	MaxFrequency  float64 `json:"max_frequency"`
	TagType       string  `json:"tag_type"`
}

// TrafficRow holds the summed pageviews an article collected in its first
// seven days, keyed by article and site.
type TrafficRow struct {
	ArticleID  string  `json:"article_id"`
	SiteDomain string  `json:"site_domain"`
	Pageviews  float64 `json:"pageviews_first_7_days"`
}

// Publication is a published page considered as a match target for drafts.
// CreatedBy is the CMS creator; Author is the byline fallback when CreatedBy
// is absent.
type Publication struct {
	PageID      string    `json:"page_id"`
	SiteDomain  string    `json:"site_domain"`
	BodyText    string    `json:"bodytext"`
	Author      *string   `json:"author,omitempty"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	PublishedAt time.Time `json:"published_ts"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
