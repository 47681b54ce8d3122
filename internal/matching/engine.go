package matching

import (
	"sort"

	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/pkg/embeddings"
)

// Confidence labels, from a raw or decayed similarity score.
const (
	ConfidenceVeryHigh = "very_high"
	ConfidenceHigh     = "high"
	ConfidenceMedium   = "medium"
	ConfidenceLow      = "low"
	ConfidenceVeryLow  = "very_low"
)

// LabelConfidence buckets a similarity score into a confidence label.
func LabelConfidence(similarity float64) string {
	switch {
	case similarity >= 0.95:
		return ConfidenceVeryHigh
	case similarity >= 0.90:
		return ConfidenceHigh
	case similarity >= 0.85:
		return ConfidenceMedium
	case similarity >= 0.80:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Match resolves the best draft for each publication among its candidate
// pairs. Selection is by raw embedding similarity; the time decay is applied
// afterwards so a late publication keeps its best-fitting draft but carries a
// lower decayed score. Records are ordered by publication id; ties on
// similarity keep the first candidate.
func Match(pairs []models.CandidatePair) []models.MatchRecord {
	byPub := make(map[string][]models.CandidatePair)
	for _, p := range pairs {
		byPub[p.Publication.PageID] = append(byPub[p.Publication.PageID], p)
	}

	pubIDs := make([]string, 0, len(byPub))
	for id := range byPub {
		pubIDs = append(pubIDs, id)
	}

	sort.Strings(pubIDs)

	records := make([]models.MatchRecord, 0, len(pubIDs))

	for _, pubID := range pubIDs {
		group := byPub[pubID]

		best := group[0]
		bestSim := embeddings.CosineSimilarity(best.Draft.Embedding, best.Publication.Embedding)

		for _, cand := range group[1:] {
			sim := embeddings.CosineSimilarity(cand.Draft.Embedding, cand.Publication.Embedding)
			if sim > bestSim {
				best, bestSim = cand, sim
			}
		}

		decayed := bestSim * best.TimeDecay

		records = append(records, models.MatchRecord{
			PublishedArticleID: pubID,
			PublishedText:      best.Publication.BodyText,
			DraftID:            best.Draft.ID,
			DraftText:          best.Draft.Content,
			TimeDecay:          best.TimeDecay,
			DecayedScore:       decayed,
			DecayedConfidence:  LabelConfidence(decayed),
			Similarity:         bestSim,
			Confidence:         LabelConfidence(bestSim),
			AuthorMatch:        best.DraftAuthor == best.PublicationAuthor,
			CreatedAt:          best.Draft.CreatedAt,
			PublishedAt:        best.Publication.PublishedAt,
			Site:               best.Publication.SiteDomain,
			RadarSource:        best.Draft.RadarSourceID,
		})
	}

	return records
}
