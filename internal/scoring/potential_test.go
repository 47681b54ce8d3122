package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

func potentialFixture() ([]models.Article, []models.TrafficRow) {
	articles := []models.Article{
		{ArticleID: "a1", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
		{ArticleID: "a2", SiteDomain: "kk.no", Embedding: []float32{0.9, 0.1}},
		{ArticleID: "a3", SiteDomain: "kk.no", Embedding: []float32{0.5, 0.5}},
		{ArticleID: "a4", SiteDomain: "kk.no", Embedding: []float32{0, 1}},
	}
	traffic := []models.TrafficRow{
		{ArticleID: "a1", SiteDomain: "kk.no", Pageviews: 1000},
		{ArticleID: "a2", SiteDomain: "kk.no", Pageviews: 2000},
		{ArticleID: "a3", SiteDomain: "kk.no", Pageviews: 3000},
		{ArticleID: "a4", SiteDomain: "kk.no", Pageviews: 4000},
	}

	return articles, traffic
}

func TestPotentialScorer_Score(t *testing.T) {
	event := models.Event{ArticleID: "ev-1", Embedding: []float32{1, 0}}

	t.Run("quartile in range and ordered pageview range", func(t *testing.T) {
		articles, traffic := potentialFixture()

		got := NewPotentialScorer(0).Score(event, articles, traffic)
		require.Contains(t, got, "kk.no")

		res := got["kk.no"]
		assert.Equal(t, "ev-1", res.EventID)
		assert.GreaterOrEqual(t, res.Quartile, 1)
		assert.LessOrEqual(t, res.Quartile, 3)
		assert.LessOrEqual(t, res.PageviewRange[0], res.PageviewRange[1])
	})

	t.Run("uniform traffic collapses to quartile 1", func(t *testing.T) {
		articles := []models.Article{
			{ArticleID: "a1", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "a2", SiteDomain: "kk.no", Embedding: []float32{0, 1}},
		}
		traffic := []models.TrafficRow{
			{ArticleID: "a1", SiteDomain: "kk.no", Pageviews: 500},
			{ArticleID: "a2", SiteDomain: "kk.no", Pageviews: 500},
		}

		got := NewPotentialScorer(0).Score(event, articles, traffic)
		res := got["kk.no"]
		// All quartiles equal 500; ties resolve to the lowest quartile and the
		// inter-quartile distance is zero.
		assert.Equal(t, 1, res.Quartile)
		assert.Equal(t, [2]int{500, 500}, res.PageviewRange)
	})

	t.Run("candidates without traffic or embedding are excluded", func(t *testing.T) {
		articles := []models.Article{
			{ArticleID: "a1", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "a2", SiteDomain: "kk.no"},              // no embedding
			{ArticleID: "a3", SiteDomain: "kk.no", Embedding: []float32{0, 1}}, // no traffic row
		}
		traffic := []models.TrafficRow{
			{ArticleID: "a1", SiteDomain: "kk.no", Pageviews: 700},
			{ArticleID: "a2", SiteDomain: "kk.no", Pageviews: 900},
		}

		got := NewPotentialScorer(0).Score(event, articles, traffic)
		// Only a1 qualifies, so all quartiles sit at 700.
		assert.Equal(t, [2]int{700, 700}, got["kk.no"].PageviewRange)
	})

	t.Run("audience without usable traffic is absent", func(t *testing.T) {
		articles := []models.Article{
			{ArticleID: "a1", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
		}

		got := NewPotentialScorer(0).Score(event, articles, nil)
		assert.NotContains(t, got, "kk.no")
	})

	t.Run("neighborhood restricted to top N by similarity", func(t *testing.T) {
		articles := []models.Article{
			{ArticleID: "near", SiteDomain: "kk.no", Embedding: []float32{1, 0}},
			{ArticleID: "far", SiteDomain: "kk.no", Embedding: []float32{-1, 0}},
		}
		traffic := []models.TrafficRow{
			{ArticleID: "near", SiteDomain: "kk.no", Pageviews: 100},
			{ArticleID: "far", SiteDomain: "kk.no", Pageviews: 100000},
		}

		got := NewPotentialScorer(1).Score(event, articles, traffic)
		res := got["kk.no"]
		// The far article's huge traffic sets the upper quartiles, but the
		// neighborhood median comes from the near article alone, so the
		// closest quartile is Q1.
		assert.Equal(t, 1, res.Quartile)
	})
}

func TestQuantile(t *testing.T) {
	t.Run("linear interpolation between order statistics", func(t *testing.T) {
		sorted := []float64{1, 2, 3, 4}
		assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-9)
		assert.InDelta(t, 2.5, quantile(sorted, 0.50), 1e-9)
		assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-9)
	})

	t.Run("degenerate inputs", func(t *testing.T) {
		assert.Zero(t, quantile(nil, 0.5))
		assert.InDelta(t, 7.0, quantile([]float64{7}, 0.5), 1e-9)
	})
}

func TestSampleStd(t *testing.T) {
	assert.Zero(t, sampleStd([]float64{42}))
	// Sample std of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138 (n-1 denominator).
	assert.InDelta(t, 2.13809, sampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-4)
}
