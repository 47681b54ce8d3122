package scoring

import (
	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// Classification scores are rescaled into a fixed band so the categorical
// signal stays bounded and comparable to similarity scores in [0, 1].
const (
	classificationFloor   = 0.70
	classificationCeiling = 0.85
	classificationLevels  = 3
)

// categorySentinel is the catch-all category value that never counts as a hit.
const categorySentinel = "Other"

// ClassificationScorer scores categorical-hierarchy overlap between the event
// and each audience's candidate articles.
type ClassificationScorer struct{}

// NewClassificationScorer creates a classification scorer.
func NewClassificationScorer() *ClassificationScorer {
	return &ClassificationScorer{}
}

// categorySets holds the distinct values per hierarchy level seen in one
// audience's candidates.
type categorySets struct {
	main map[string]struct{}
	mid  map[string]struct{}
	sub  map[string]struct{}
}

// Score returns each audience's category similarity: one point per hierarchy
// level where the event's value is non-empty, not the sentinel, and present in
// the audience's candidates, rescaled from 0..3 into [0.70, 0.85].
func (c *ClassificationScorer) Score(event models.Event, articles []models.Article) map[string]float64 {
	sets := make(map[string]*categorySets)

	for _, a := range articles {
		s, ok := sets[a.SiteDomain]
		if !ok {
			s = &categorySets{
				main: make(map[string]struct{}),
				mid:  make(map[string]struct{}),
				sub:  make(map[string]struct{}),
			}
			sets[a.SiteDomain] = s
		}

		addCategory(s.main, a.MainCategory)
		addCategory(s.mid, a.Category)
		addCategory(s.sub, a.SubCategory)
	}

	results := make(map[string]float64, len(sets))

	for audience, s := range sets {
		score := 0
		if categoryHit(event.MainCategory, s.main) {
			score++
		}

		if categoryHit(event.Category, s.mid) {
			score++
		}

		if categoryHit(event.SubCategory, s.sub) {
			score++
		}

		results[audience] = classificationFloor +
			float64(score)/classificationLevels*(classificationCeiling-classificationFloor)
	}

	return results
}

func addCategory(set map[string]struct{}, v *string) {
	if v != nil {
		set[*v] = struct{}{}
	}
}

// categoryHit reports whether the event's value at one level counts: present,
// non-empty, not the sentinel, and observed anywhere in the audience's column.
func categoryHit(v *string, set map[string]struct{}) bool {
	if v == nil || *v == "" || *v == categorySentinel {
		return false
	}

	_, ok := set[*v]

	return ok
}
