package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Content-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Generation outcomes by model and failure code ("" for success)
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "generations_total",
			Help:      "Total generation calls by model, kind and outcome",
		},
		[]string{"model", "kind", "outcome"},
	)

	// A/B path routing
	OrchestratorPathTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "orchestrator_path_total",
			Help:      "Orchestrated calls by version and whether they fell back",
		},
		[]string{"version", "fell_back"},
	)

	// Credits deducted
	CreditsDeductedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "credits_deducted_total",
			Help:      "Total credits deducted per model",
		},
		[]string{"model"},
	)

	// Provider errors
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "provider_errors_total",
			Help:      "Total provider call failures",
		},
		[]string{"provider"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Generation duration by model
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "generation_duration_seconds",
			Help:      "Generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "kind"},
	)

	// Cached model instances currently held by the factory
	ModelInstancesCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nevis",
			Subsystem: "content_api",
			Name:      "model_instances_cached",
			Help:      "Model instances currently cached by the factory",
		},
	)
)

// NormalizeEndpoint collapses path parameters so metric cardinality stays
// bounded.
func NormalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) > 20 || strings.Count(part, "-") >= 4 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
