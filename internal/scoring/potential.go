package scoring

import (
	"math"
	"sort"

	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/pkg/embeddings"
)

// DefaultPotentialTopN is the size of the nearest-neighbor neighborhood the
// traffic-potential classification is derived from.
const DefaultPotentialTopN = 25

// Defaults applied when an audience has no usable traffic data.
const (
	DefaultQuartile      = 1
	defaultRangeLower    = 0
	defaultRangeUpper    = 1
	quartileRangeSpread  = 0.25
	regimeMedianMultiple = 2.0
)

// PotentialScorer classifies an event's predicted traffic potential per
// audience by comparing a nearest-by-embedding neighborhood's weighted
// pageview median against the audience's historical pageview quartiles.
type PotentialScorer struct {
	topN int
}

// NewPotentialScorer creates a potential scorer. topN <= 0 selects the default.
func NewPotentialScorer(topN int) *PotentialScorer {
	if topN <= 0 {
		topN = DefaultPotentialTopN
	}

	return &PotentialScorer{topN: topN}
}

// neighbor is one candidate with both a usable embedding and known traffic.
type neighbor struct {
	similarity float64
	pageviews  float64
}

// Score classifies the event for every audience that has candidates with both
// a valid embedding and a known first-7-day pageview count. Audiences without
// such candidates are absent from the result; callers apply DefaultQuartile
// and the [0, 1] range when merging.
func (p *PotentialScorer) Score(event models.Event, articles []models.Article, traffic []models.TrafficRow) map[string]models.PotentialResult {
	if !embeddings.Valid(event.Embedding) {
		return nil
	}

	pageviews := make(map[string]float64, len(traffic))
	for _, row := range traffic {
		pageviews[row.SiteDomain+"\x00"+row.ArticleID] = row.Pageviews
	}

	dim := len(event.Embedding)
	groups := make(map[string][]neighbor)

	for _, a := range articles {
		pv, ok := pageviews[a.SiteDomain+"\x00"+a.ArticleID]
		if !ok || len(a.Embedding) != dim {
			continue
		}

		groups[a.SiteDomain] = append(groups[a.SiteDomain], neighbor{
			similarity: embeddings.CosineSimilarity(event.Embedding, a.Embedding),
			pageviews:  pv,
		})
	}

	results := make(map[string]models.PotentialResult, len(groups))

	for audience, candidates := range groups {
		q1, q2, q3 := quartiles(pageviewValues(candidates))

		top := topBySimilarity(candidates, p.topN)
		representative := weightedMedian(pageviewValues(top))

		quartile := closestQuartile(representative, q1, q2, q3)
		lower, upper := quartileRange(quartile, q1, q2, q3)

		results[audience] = models.PotentialResult{
			EventID:       event.ArticleID,
			Audience:      audience,
			Quartile:      quartile,
			PageviewRange: [2]int{lower, upper},
		}
	}

	return results
}

func pageviewValues(ns []neighbor) []float64 {
	vs := make([]float64, len(ns))
	for i, n := range ns {
		vs[i] = n.pageviews
	}

	return vs
}

// topBySimilarity returns the n most similar neighbors (all of them when the
// group is smaller). Ties preserve the incoming order for determinism.
func topBySimilarity(ns []neighbor, n int) []neighbor {
	sorted := make([]neighbor, len(ns))
	copy(sorted, ns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].similarity > sorted[j].similarity
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}

// weightedMedian buckets the neighborhood's pageview counts into three
// regimes around the spread statistic (above std, between calc and std, at or
// below calc where calc = std - 2*median), weights each value by its regime's
// relative frequency, and returns the median of the weighted values.
func weightedMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	std := sampleStd(values)
	med := median(values)
	calc := std - regimeMedianMultiple*med

	var high, mid, low int

	for _, v := range values {
		switch {
		case v > std:
			high++
		case v > calc:
			mid++
		default:
			low++
		}
	}

	n := float64(len(values))
	weights := [3]float64{float64(high) / n, float64(mid) / n, float64(low) / n}

	weighted := make([]float64, len(values))

	for i, v := range values {
		switch {
		case v > std:
			weighted[i] = v * weights[0]
		case v > calc:
			weighted[i] = v * weights[1]
		default:
			weighted[i] = v * weights[2]
		}
	}

	return median(weighted)
}

// closestQuartile picks the quartile whose absolute distance to the
// representative value is smallest; ties resolve to the lower quartile.
func closestQuartile(value, q1, q2, q3 float64) int {
	quartile := 1
	best := math.Abs(value - q1)

	if d := math.Abs(value - q2); d < best {
		quartile, best = 2, d
	}

	if d := math.Abs(value - q3); d < best {
		quartile = 3
	}

	return quartile
}

// quartileRange straddles the chosen quartile with ±25% of the surrounding
// inter-quartile distance, floored/ceiled to integers.
func quartileRange(quartile int, q1, q2, q3 float64) (int, int) {
	var center, iqDist float64

	switch quartile {
	case 1:
		center, iqDist = q1, q2-q1
	case 2:
		center, iqDist = q2, q3-q1
	default:
		center, iqDist = q3, q3-q2
	}

	lower := int(math.Floor(center - quartileRangeSpread*iqDist))
	upper := int(math.Ceil(center + quartileRangeSpread*iqDist))

	return lower, upper
}

// quartiles returns the 0.25, 0.50, and 0.75 quantiles with linear
// interpolation between order statistics.
func quartiles(values []float64) (q1, q2, q3 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return quantile(sorted, 0.25), quantile(sorted, 0.50), quantile(sorted, 0.75)
}

// quantile computes the q-th quantile of sorted values by linear
// interpolation (the same method pandas and numpy default to).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return quantile(sorted, 0.50)
}

// sampleStd is the sample standard deviation (n-1 denominator). Groups with
// fewer than two values have no spread; 0 keeps the regime bucketing defined.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))

	var sq float64

	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return math.Sqrt(sq / float64(len(values)-1))
}
