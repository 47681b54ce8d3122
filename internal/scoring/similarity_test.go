package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/internal/scorererrors"
)

func TestSimilarityScorer_Score(t *testing.T) {
	t.Run("mean of top-N per audience", func(t *testing.T) {
		// Identical vector scores 1.0, orthogonal scores 0.0, mean is 0.5.
		event := models.Event{ArticleID: "ev-1", Embedding: []float32{1, 0}}
		articles := []models.Article{
			{ArticleID: "a", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "b", SiteDomain: "kk.no", Embedding: []float32{0, 1}},
		}

		got, err := NewSimilarityScorer(2).Score(event, articles)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.5, got["kk.no"], 1e-9)
	})

	t.Run("top-N keeps only the best candidates", func(t *testing.T) {
		event := models.Event{ArticleID: "ev-1", Embedding: []float32{1, 0}}
		articles := []models.Article{
			{ArticleID: "a", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "b", SiteDomain: "kk.no", Embedding: []float32{1, 0.01}},
			{ArticleID: "c", SiteDomain: "kk.no", Embedding: []float32{-1, 0}},
		}

		got, err := NewSimilarityScorer(2).Score(event, articles)
		require.NoError(t, err)
		// The -1 similarity candidate falls outside the top 2.
		assert.Greater(t, got["kk.no"], 0.99)
	})

	t.Run("groups by audience", func(t *testing.T) {
		event := models.Event{ArticleID: "ev-1", Embedding: []float32{1, 0}}
		articles := []models.Article{
			{ArticleID: "a", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "b", SiteDomain: "femina.se", Embedding: []float32{0, 1}},
		}

		got, err := NewSimilarityScorer(0).Score(event, articles)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got["kk.no"], 1e-9)
		assert.InDelta(t, 0.0, got["femina.se"], 1e-9)
	})

	t.Run("skips candidates with missing or mismatched embeddings", func(t *testing.T) {
		event := models.Event{ArticleID: "ev-1", Embedding: []float32{1, 0}}
		articles := []models.Article{
			{ArticleID: "a", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "b", SiteDomain: "kk.no"},
			{ArticleID: "c", SiteDomain: "kk.no", Embedding: []float32{1, 0, 0}},
		}

		got, err := NewSimilarityScorer(0).Score(event, articles)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got["kk.no"], 1e-9)
	})

	t.Run("missing event embedding is a validation error", func(t *testing.T) {
		_, err := NewSimilarityScorer(0).Score(models.Event{ArticleID: "ev-1"}, []models.Article{
			{ArticleID: "a", SiteDomain: "kk.no", Embedding: []float32{1}},
		})
		assert.ErrorIs(t, err, scorererrors.ErrValidation)
	})

	t.Run("no usable candidates anywhere is a data error", func(t *testing.T) {
		_, err := NewSimilarityScorer(0).Score(
			models.Event{ArticleID: "ev-1", Embedding: []float32{1, 0}},
			[]models.Article{{ArticleID: "a", SiteDomain: "kk.no"}},
		)
		assert.ErrorIs(t, err, scorererrors.ErrData)
	})
}
