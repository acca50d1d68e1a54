package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects generation pipeline metrics. A nil *Metrics is valid and
// records nothing, so tests can pass nil.
type Metrics struct {
	routeRequests *prometheus.CounterVec
	routeAttempts *prometheus.CounterVec
	routeDuration *prometheus.HistogramVec
	postsSaved    prometheus.Counter
	imagesSaved   prometheus.Counter
}

// NewMetrics registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		routeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blogsmith_route_requests_total",
			Help: "Generation requests by capability and final status.",
		}, []string{"capability", "status"}),
		routeAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blogsmith_route_attempts_total",
			Help: "Provider attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		routeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blogsmith_route_duration_seconds",
			Help:    "End-to-end routing latency by capability.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"capability"}),
		postsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "blogsmith_posts_saved_total",
			Help: "Blog posts written to the site content directory.",
		}),
		imagesSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "blogsmith_images_saved_total",
			Help: "Generated images written to disk.",
		}),
	}
}

// RecordRoute records a completed routing call.
func (m *Metrics) RecordRoute(capability, status string, seconds float64) {
	if m == nil {
		return
	}
	m.routeRequests.WithLabelValues(capability, status).Inc()
	m.routeDuration.WithLabelValues(capability).Observe(seconds)
}

// RecordAttempt records one provider attempt.
func (m *Metrics) RecordAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.routeAttempts.WithLabelValues(provider, outcome).Inc()
}

// PostSaved counts a persisted blog post.
func (m *Metrics) PostSaved() {
	if m == nil {
		return
	}
	m.postsSaved.Inc()
}

// ImageSaved counts a persisted image.
func (m *Metrics) ImageSaved() {
	if m == nil {
		return
	}
	m.imagesSaved.Inc()
}
