package models

import (
	"time"

	"github.com/google/uuid"
)

// Draft is an editorial draft written in the platform, candidate origin of a
// later publication.
type Draft struct {
	ID              uuid.UUID `json:"id"`
	ConfigurationID string    `json:"configuration_id"`
	CreatedAt       time.Time `json:"created_at"`
	UserID          uuid.UUID `json:"user_id"`
	Content         string    `json:"content"`
	Embedding       []float32 `json:"embedding,omitempty"`
	RadarSourceID   *string   `json:"radar_source_id,omitempty"`
}

// User is a platform user; first and last name form the identity that draft
// authors are matched against.
type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// CandidatePair is one draft/publication pair restricted to matching audience
// and author identity, published within the trailing window. Author fields
// hold the canonical "first last" lowercase forms used for the match flag.
type CandidatePair struct {
	Draft             Draft
	Publication       Publication
	DraftAuthor       string
	PublicationAuthor string
	DaysDiff          int
	TimeDecay         float64
}

// MatchRecord is the resolved best match for one publication.
type MatchRecord struct {
	PublishedArticleID string    `json:"published_article_id"`
	PublishedText      string    `json:"published_text"`
	DraftID            uuid.UUID `json:"citation_story_id"`
	DraftText          string    `json:"draft_text"`
	TimeDecay          float64   `json:"time_decay"`
	DecayedScore       float64   `json:"decayed_score"`
	DecayedConfidence  string    `json:"decayed_confidence_level"`
	Similarity         float64   `json:"similarity"`
	Confidence         string    `json:"confidence_level"`
	AuthorMatch        bool      `json:"created_by_match"`
	CreatedAt          time.Time `json:"created_at"`
	PublishedAt        time.Time `json:"published_at"`
	Site               string    `json:"site"`
	RadarSource        *string   `json:"radar_source,omitempty"`
}
