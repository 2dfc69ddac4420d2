// Package metrics defines the cross-cutting Prometheus instrumentation
// for the event fabric, retrieval core, verification core, and review
// engine, grounded on the explicit
// NewCounterVec/NewHistogramVec+Registerer.Register style used by
// luxfi-consensus's prism package (prometheus is a domain dependency
// surveyed from that repo and jordigilh/kubernaut's go.mod, not
// something tarsy itself wires) rather than the promauto sugar, so a
// failed registration surfaces as an explicit error at startup instead
// of panicking.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric the core publishes. One Registry is
// constructed per process and threaded into the packages that observe
// it (eventbus.Publisher, retrieval.Service, verification.Verifier,
// policyreview.Engine), mirroring spec.md §9's "constructed once,
// shared" rule already used for the legislation health manager.
type Registry struct {
	EventsPublished   *prometheus.CounterVec
	RetrievalDuration *prometheus.HistogramVec
	VerificationOutcomes *prometheus.CounterVec
	ReviewDuration    prometheus.Histogram
	PolicyRatings     *prometheus.CounterVec
}

// New constructs a Registry and registers every metric against reg. Use
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer for the process-wide one (cmd/server).
func New(reg prometheus.Registerer) (*Registry, error) {
	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aldergate",
		Subsystem: "eventbus",
		Name:      "events_published_total",
		Help:      "Total events published, labelled by scope and event type.",
	}, []string{"scope", "event_type"})

	retrievalDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aldergate",
		Subsystem: "retrieval",
		Name:      "hybrid_search_duration_seconds",
		Help:      "Hybrid search pipeline latency by stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	verificationOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aldergate",
		Subsystem: "verification",
		Name:      "citation_outcomes_total",
		Help:      "Citation verification outcomes by status.",
	}, []string{"status"})

	reviewDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aldergate",
		Subsystem: "policyreview",
		Name:      "review_duration_seconds",
		Help:      "Wall-clock time for a full policy review run.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	policyRatings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aldergate",
		Subsystem: "policyreview",
		Name:      "overall_ratings_total",
		Help:      "Completed policy reviews by overall RAG rating.",
	}, []string{"rating"})

	for _, c := range []prometheus.Collector{eventsPublished, retrievalDuration, verificationOutcomes, reviewDuration, policyRatings} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}

	return &Registry{
		EventsPublished:      eventsPublished,
		RetrievalDuration:    retrievalDuration,
		VerificationOutcomes: verificationOutcomes,
		ReviewDuration:       reviewDuration,
		PolicyRatings:        policyRatings,
	}, nil
}

// ObservePublish records one event published on a channel of the given
// scope and type.
func (r *Registry) ObservePublish(scope, eventType string) {
	if r == nil {
		return
	}
	r.EventsPublished.WithLabelValues(scope, eventType).Inc()
}

// ObserveVerification records the outcome of one citation check.
func (r *Registry) ObserveVerification(status string) {
	if r == nil {
		return
	}
	r.VerificationOutcomes.WithLabelValues(status).Inc()
}

// ObserveReview records one completed policy review's duration and
// overall rating.
func (r *Registry) ObserveReview(seconds float64, rating string) {
	if r == nil {
		return
	}
	r.ReviewDuration.Observe(seconds)
	r.PolicyRatings.WithLabelValues(rating).Inc()
}
