package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// Metrics holds all Prometheus metrics for the optimiser.
type Metrics struct {
	// Registry owns these metrics; the /metrics endpoint serves it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	nodeDuration        *prometheus.HistogramVec
	turns               *prometheus.CounterVec
	outcomes            *prometheus.CounterVec
	classifierFallbacks prometheus.Counter
	externalErrors      *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	requestsTotal       *prometheus.CounterVec
	cardsScored         prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests call NewMetrics
// repeatedly without "duplicate collector" panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optimiser_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optimiser_flow_node_duration_seconds",
				Help:    "Duration of each conversation flow node.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		turns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimiser_turns_total",
				Help: "Conversation turns by classified intent.",
			},
			[]string{"intent"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimiser_turn_outcomes_total",
				Help: "Conversation turns by final outcome.",
			},
			[]string{"outcome"},
		),
		classifierFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "optimiser_classifier_fallbacks_total",
				Help: "Turns where the intent classifier failed or answered out of set.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimiser_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimiser_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimiser_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimiser_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		cardsScored: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "optimiser_portfolio_size",
				Help:    "Number of cards evaluated per scoring pass.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordNodeDuration records how long one flow node took.
func (m *Metrics) RecordNodeDuration(node string, d time.Duration) {
	m.nodeDuration.WithLabelValues(node).Observe(d.Seconds())
}

// IncrTurn counts a finished turn under its intent and outcome.
func (m *Metrics) IncrTurn(intent, outcome string) {
	m.turns.WithLabelValues(intent).Inc()
	m.outcomes.WithLabelValues(outcome).Inc()
}

// IncrClassifierFallback counts a turn routed to general because the
// classifier could not be used.
func (m *Metrics) IncrClassifierFallback() {
	m.classifierFallbacks.Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// ObservePortfolioSize records how many cards one scoring pass evaluated.
func (m *Metrics) ObservePortfolioSize(n int) {
	m.cardsScored.Observe(float64(n))
}

// FlowSnapshot returns cumulative flow counters for GET /v1/metrics/flow.
func (m *Metrics) FlowSnapshot() *domain.FlowMetrics {
	byIntent := counterVecValues(m.Registry, "optimiser_turns_total", "intent")
	byOutcome := counterVecValues(m.Registry, "optimiser_turn_outcomes_total", "outcome")
	external := counterVecValues(m.Registry, "optimiser_external_errors_total", "service")

	var total int64
	for _, v := range byIntent {
		total += v
	}

	fallbacks := int64(counterValue(m.classifierFallbacks))
	fallbackRate := 0.0
	if total > 0 {
		fallbackRate = float64(fallbacks) / float64(total)
	}

	var hits, misses int64
	for _, v := range counterVecValues(m.Registry, "optimiser_cache_hits_total", "cache") {
		hits += v
	}
	for _, v := range counterVecValues(m.Registry, "optimiser_cache_misses_total", "cache") {
		misses += v
	}
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return &domain.FlowMetrics{
		TotalTurns:          total,
		TurnsByIntent:       byIntent,
		TurnsByOutcome:      byOutcome,
		ClassifierFallbacks: fallbacks,
		FallbackRate:        fallbackRate,
		ExternalErrors:      external,
		CacheHitRate:        hitRate,
		Period:              "all_time",
	}
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// counterVecValues gathers family from reg and indexes its samples by the
// value of label.
func counterVecValues(reg *prometheus.Registry, family, label string) map[string]int64 {
	out := make(map[string]int64)

	families, err := reg.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		if mf.GetName() != family {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label {
					out[lp.GetValue()] = int64(metric.GetCounter().GetValue())
				}
			}
		}
	}
	return out
}
