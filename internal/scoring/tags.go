package scoring

import (
	"strings"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// TagResult is one audience's lexical tag score plus the tags that matched,
// reported downstream as named entities.
type TagResult struct {
	Score    float64
	Entities []string
}

// TagScorer matches the per-site tag frequency table against the event body
// text. Matching is substring-based, not tokenized, so short tags can match
// inside longer words; strict mode switches to word-boundary matching.
type TagScorer struct {
	strict bool
}

// NewTagScorer creates a tag scorer with lenient (substring) matching.
func NewTagScorer() *TagScorer {
	return &TagScorer{}
}

// NewStrictTagScorer creates a tag scorer that only matches tags surrounded
// by non-letter boundaries in the body text.
func NewStrictTagScorer() *TagScorer {
	return &TagScorer{strict: true}
}

// Score returns, per audience, the maximum frequency/max_frequency ratio over
// matched tags (0.0 when nothing matched) and the matched tag strings. Tags
// and body text are case-folded before comparison. Every audience present in
// the table gets a result.
func (t *TagScorer) Score(event models.Event, tagScores []models.TagScore) map[string]TagResult {
	body := strings.ToLower(event.BodyText)
	results := make(map[string]TagResult)

	for _, row := range tagScores {
		res := results[row.Site]

		tag := strings.ToLower(row.Tag)
		if tag == "" || !t.matches(body, tag) {
			results[row.Site] = res

			continue
		}

		res.Entities = append(res.Entities, tag)

		if row.MaxFrequency > 0 {
			if score := row.Frequency / row.MaxFrequency; score > res.Score {
				res.Score = score
			}
		}

		results[row.Site] = res
	}

	return results
}

func (t *TagScorer) matches(body, tag string) bool {
	if !t.strict {
		return strings.Contains(body, tag)
	}

	for idx := 0; ; {
		i := strings.Index(body[idx:], tag)
		if i < 0 {
			return false
		}

		start := idx + i
		end := start + len(tag)

		if boundaryBefore(body, start) && boundaryAfter(body, end) {
			return true
		}

		idx = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	return i == 0 || !isWordByte(s[i-1])
}

func boundaryAfter(s string, i int) bool {
	return i >= len(s) || !isWordByte(s[i])
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}
