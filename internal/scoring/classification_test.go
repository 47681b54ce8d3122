package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

func strPtr(s string) *string { return &s }

func TestClassificationScorer_Score(t *testing.T) {
	scorer := NewClassificationScorer()

	articles := []models.Article{
		{
			ArticleID:    "a",
			SiteDomain:   "kk.no",
			MainCategory: strPtr("Underholdning"),
			Category:     strPtr("Kjendis"),
			SubCategory:  strPtr("Kongelig"),
		},
		{
			ArticleID:    "b",
			SiteDomain:   "femina.se",
			MainCategory: strPtr("Mode"),
		},
	}

	t.Run("all-null event scores the floor for every audience", func(t *testing.T) {
		got := scorer.Score(models.Event{ArticleID: "ev-1"}, articles)
		assert.InDelta(t, 0.70, got["kk.no"], 1e-9)
		assert.InDelta(t, 0.70, got["femina.se"], 1e-9)
	})

	t.Run("full three-level match scores the ceiling", func(t *testing.T) {
		event := models.Event{
			ArticleID:    "ev-1",
			MainCategory: strPtr("Underholdning"),
			Category:     strPtr("Kjendis"),
			SubCategory:  strPtr("Kongelig"),
		}
		got := scorer.Score(event, articles)
		assert.InDelta(t, 0.85, got["kk.no"], 1e-9)
	})

	t.Run("single level match rescales linearly", func(t *testing.T) {
		event := models.Event{ArticleID: "ev-1", MainCategory: strPtr("Underholdning")}
		got := scorer.Score(event, articles)
		assert.InDelta(t, 0.75, got["kk.no"], 1e-9)
	})

	t.Run("sentinel and empty values never count", func(t *testing.T) {
		withSentinel := []models.Article{
			{ArticleID: "a", SiteDomain: "kk.no", MainCategory: strPtr("Other"), Category: strPtr("")},
		}
		event := models.Event{ArticleID: "ev-1", MainCategory: strPtr("Other"), Category: strPtr("")}
		got := scorer.Score(event, withSentinel)
		assert.InDelta(t, 0.70, got["kk.no"], 1e-9)
	})

	t.Run("scores audiences independently", func(t *testing.T) {
		event := models.Event{ArticleID: "ev-1", MainCategory: strPtr("Mode")}
		got := scorer.Score(event, articles)
		assert.InDelta(t, 0.70, got["kk.no"], 1e-9)
		assert.InDelta(t, 0.75, got["femina.se"], 1e-9)
	})
}
