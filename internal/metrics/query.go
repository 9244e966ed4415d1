package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query state Prometheus metrics.
var (
	QueryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "querystate",
			Name:      "query_operations_total",
			Help:      "Total number of query state operations",
		},
		[]string{"view", "op"},
	)

	TemplateCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "querystate",
			Name:      "template_cache_total",
			Help:      "Parsed template cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryOperationsTotal)
	prometheus.MustRegister(TemplateCacheTotal)
	queryMetricsRegistered = true
}

// QueryRecorder feeds query service events into the Prometheus counters.
type QueryRecorder struct{}

// RecordOperation counts one completed operation on a view.
func (QueryRecorder) RecordOperation(view, op string) {
	QueryOperationsTotal.WithLabelValues(view, op).Inc()
}

// RecordTemplateCache counts a template cache lookup.
func (QueryRecorder) RecordTemplateCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	TemplateCacheTotal.WithLabelValues(result).Inc()
}
