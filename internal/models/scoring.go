package models

// AudienceScore carries the per-audience feature values produced by the
// individual scorers before combination. Missing tag scores default to 0.
type AudienceScore struct {
	EventID             string   `json:"id"`
	Audience            string   `json:"site_domain"`
	EmbeddingSimilarity float64  `json:"embedding_similarity"`
	CategorySimilarity  float64  `json:"category_similarity"`
	TagScore            float64  `json:"tag_score"`
	Entities            []string `json:"entities"`
}

// PotentialResult is the traffic-potential classification for one audience.
type PotentialResult struct {
	EventID       string `json:"id"`
	Audience      string `json:"site_domain"`
	Quartile      int    `json:"potential_quartile"`
	PageviewRange [2]int `json:"pageview_range"`
}

// ScoreRow is the final per-audience score row keyed by (event id, audience).
type ScoreRow struct {
	EventID       string   `json:"id"`
	Audience      string   `json:"site_domain"`
	Score         float64  `json:"score"`
	Entities      []string `json:"entities"`
	Quartile      int      `json:"potential_quartile"`
	PageviewRange [2]int   `json:"pageview_range"`
}

// Entity is one named entity in the outbound platform payload.
type Entity struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// PageviewRange is the predicted traffic band in the outbound payload.
type PageviewRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// PlatformRow is the shape the AI platform accepts for one audience score.
type PlatformRow struct {
	ID                string        `json:"id"`
	Entities          []Entity      `json:"entities"`
	PageviewRange     PageviewRange `json:"pageview_range"`
	PotentialQuartile string        `json:"potential_quartile"`
	Relevance         float64       `json:"relevance"`
	AudienceSite      string        `json:"audience_site"`
}
