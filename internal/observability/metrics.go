package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters and histograms.
type Metrics struct {
	EventsScored    *prometheus.CounterVec
	ScoringDuration prometheus.Histogram
	PushFailures    prometheus.Counter
	DuplicateEvents prometheus.Counter
	MatchesWritten  prometheus.Counter
}

// NewMetrics creates and registers the service metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_scorer_events_scored_total",
			Help: "Events processed, labelled by outcome.",
		}, []string{"status"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "event_scorer_scoring_duration_seconds",
			Help:    "Wall time spent scoring one event.",
			Buckets: prometheus.DefBuckets,
		}),
		PushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_scorer_platform_push_failures_total",
			Help: "Failed deliveries to the AI platform.",
		}),
		DuplicateEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_scorer_duplicate_events_total",
			Help: "Events skipped because their message id was already seen.",
		}),
		MatchesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_scorer_matches_written_total",
			Help: "Draft match records written by the matching job.",
		}),
	}

	reg.MustRegister(m.EventsScored, m.ScoringDuration, m.PushFailures, m.DuplicateEvents, m.MatchesWritten)

	return m
}
