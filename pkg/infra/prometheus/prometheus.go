package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds. Upstream AI calls dominate, so the
	// range leans toward seconds.
	latencyBuckets = []float64{
		25, 50, 100,
		250, 500, 1000,
		2500, 5000, 10000,
		30000, 60000,
	}

	// RequestsTotal counts analyzed clips by final outcome: accepted,
	// rejected, no_speech, canceled, failed.
	RequestsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_requests_total",
			Help: "Total number of audio analysis requests processed",
		},
		[]string{"outcome"},
	)

	// StageLatency measures each pipeline stage: normalize, transcribe,
	// moderate, guidance, regulation.
	StageLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callguard_stage_latency_ms",
			Help:    "Pipeline stage latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"stage"},
	)

	// RejectionsTotal counts per-category rejects from the decision engine.
	RejectionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_rejections_total",
			Help: "Per-category reject decisions",
		},
		[]string{"category"},
	)

	// BranchFailuresTotal counts fail-soft degradations of the guidance and
	// regulation branches.
	BranchFailuresTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_branch_failures_total",
			Help: "Guidance/regulation branch failures degraded to null",
		},
		[]string{"branch"},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}
