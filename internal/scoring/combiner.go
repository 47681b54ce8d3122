package scoring

import (
	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// maxScore caps the combined relevance score.
const maxScore = 1.0

// Combiner merges the per-audience feature values into one final score using
// the audience's configured weight blend.
type Combiner struct {
	config *WeightConfig
}

// NewCombiner creates a combiner over the given weight configuration.
func NewCombiner(config *WeightConfig) *Combiner {
	return &Combiner{config: config}
}

// Combine resolves each row's weight table (audience entry or default),
// normalizes the weighted entries to sum to 1 when their raw sum is positive,
// applies additive entries as flat bonuses, and clamps the result to 1.0.
func (c *Combiner) Combine(rows []models.AudienceScore) []models.ScoreRow {
	out := make([]models.ScoreRow, 0, len(rows))

	for _, row := range rows {
		table := c.config.TableFor(row.Audience)

		var weightedSum float64

		for _, fw := range table {
			if fw.Kind == Weighted {
				weightedSum += fw.Value
			}
		}

		var score float64

		for feature, fw := range table {
			value := featureValue(row, feature)

			switch fw.Kind {
			case Weighted:
				if weightedSum > 0 {
					score += value * (fw.Value / weightedSum)
				}
			case Additive:
				score += value * fw.Value
			}
		}

		if score > maxScore {
			score = maxScore
		}

		out = append(out, models.ScoreRow{
			EventID:  row.EventID,
			Audience: row.Audience,
			Score:    score,
			Entities: row.Entities,
		})
	}

	return out
}

// featureValue resolves a configured feature name against the row. Unknown
// feature names contribute 0 rather than failing, so config changes can land
// ahead of code.
func featureValue(row models.AudienceScore, feature string) float64 {
	switch feature {
	case "embedding_similarity":
		return row.EmbeddingSimilarity
	case "category_similarity":
		return row.CategorySimilarity
	case "tag_score":
		return row.TagScore
	default:
		return 0
	}
}
