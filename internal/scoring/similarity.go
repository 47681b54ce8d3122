// Package scoring implements the per-audience relevance scorers and their
// combination into a final calibrated score.
package scoring

import (
	"fmt"
	"sort"

	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/internal/scorererrors"
	"github.com/allermedia/allerai-event-scorer/pkg/embeddings"
)

// DefaultSimilarityTopN is how many nearest candidates contribute to an
// audience's embedding similarity.
const DefaultSimilarityTopN = 10

// SimilarityScorer ranks an event against cached candidate articles by cosine
// similarity, grouped per audience.
type SimilarityScorer struct {
	topN int
}

// NewSimilarityScorer creates a similarity scorer. topN <= 0 selects the default.
func NewSimilarityScorer(topN int) *SimilarityScorer {
	if topN <= 0 {
		topN = DefaultSimilarityTopN
	}

	return &SimilarityScorer{topN: topN}
}

// Score computes each audience's embedding similarity: the mean of the top-N
// cosine similarities between the event embedding and the audience's
// candidates with valid embeddings of matching dimensionality.
//
// It returns a ValidationError when the event embedding is missing or empty,
// and a DataError when no candidate in any audience has a usable embedding.
func (s *SimilarityScorer) Score(event models.Event, articles []models.Article) (map[string]float64, error) {
	if !embeddings.Valid(event.Embedding) {
		return nil, scorererrors.NewValidationError("embeddings_en",
			fmt.Sprintf("event embedding is null or empty for article_id %s", event.ArticleID))
	}

	dim := len(event.Embedding)
	groups := make(map[string][]float64)

	for _, a := range articles {
		if len(a.Embedding) != dim {
			continue
		}

		sim := embeddings.CosineSimilarity(event.Embedding, a.Embedding)
		groups[a.SiteDomain] = append(groups[a.SiteDomain], sim)
	}

	if len(groups) == 0 {
		return nil, scorererrors.NewDataError(
			fmt.Sprintf("no similarity scores computed for event_id %s: no candidates with valid embeddings", event.ArticleID))
	}

	results := make(map[string]float64, len(groups))

	for audience, sims := range groups {
		sort.Sort(sort.Reverse(sort.Float64Slice(sims)))

		n := s.topN
		if len(sims) < n {
			n = len(sims)
		}

		var sum float64
		for _, v := range sims[:n] {
			sum += v
		}

		results[audience] = sum / float64(n)
	}

	return results, nil
}
