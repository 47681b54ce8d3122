package scoring

import (
	"sort"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// Engine runs the four feature scorers against a reference-data snapshot and
// combines their outputs into final per-audience score rows.
type Engine struct {
	similarity     *SimilarityScorer
	classification *ClassificationScorer
	tags           *TagScorer
	potential      *PotentialScorer
	combiner       *Combiner
}

// EngineParams configures the scoring engine. Zero top-N values select the
// component defaults.
type EngineParams struct {
	Weights        *WeightConfig
	SimilarityTopN int
	PotentialTopN  int
	StrictTags     bool
}

// NewEngine creates a scoring engine.
func NewEngine(p EngineParams) *Engine {
	tags := NewTagScorer()
	if p.StrictTags {
		tags = NewStrictTagScorer()
	}

	return &Engine{
		similarity:     NewSimilarityScorer(p.SimilarityTopN),
		classification: NewClassificationScorer(),
		tags:           tags,
		potential:      NewPotentialScorer(p.PotentialTopN),
		combiner:       NewCombiner(p.Weights),
	}
}

// ScoreEvent scores one event against every audience present in the candidate
// articles. The four scorers run independently; their per-audience outputs
// are merged (missing tag scores default to 0, missing traffic potential to
// quartile 1 with range [0, 1]) and combined into one row per audience,
// ordered by audience for determinism.
//
// Errors propagate unchanged: a ValidationError for a missing event embedding
// and a DataError when no audience has candidates with usable embeddings.
func (e *Engine) ScoreEvent(event models.Event, articles []models.Article, tagScores []models.TagScore, traffic []models.TrafficRow) ([]models.ScoreRow, error) {
	sims, err := e.similarity.Score(event, articles)
	if err != nil {
		return nil, err
	}

	cats := e.classification.Score(event, articles)
	tagResults := e.tags.Score(event, tagScores)
	potentials := e.potential.Score(event, articles, traffic)

	audiences := make([]string, 0, len(sims))
	for audience := range sims {
		audiences = append(audiences, audience)
	}

	sort.Strings(audiences)

	features := make([]models.AudienceScore, 0, len(audiences))

	for _, audience := range audiences {
		row := models.AudienceScore{
			EventID:             event.ArticleID,
			Audience:            audience,
			EmbeddingSimilarity: sims[audience],
			CategorySimilarity:  cats[audience],
		}

		if tr, ok := tagResults[audience]; ok {
			row.TagScore = tr.Score
			row.Entities = tr.Entities
		}

		features = append(features, row)
	}

	rows := e.combiner.Combine(features)

	for i := range rows {
		if pr, ok := potentials[rows[i].Audience]; ok {
			rows[i].Quartile = pr.Quartile
			rows[i].PageviewRange = pr.PageviewRange

			continue
		}

		rows[i].Quartile = DefaultQuartile
		rows[i].PageviewRange = [2]int{defaultRangeLower, defaultRangeUpper}
	}

	return rows, nil
}
