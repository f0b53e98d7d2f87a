package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TurnsProcessed *prometheus.CounterVec
	StateOps       *prometheus.CounterVec
	Enrichment     *prometheus.CounterVec
	Responses      *prometheus.CounterVec
	EventDrops     prometheus.Counter
	EventStreams   prometheus.Gauge
	TurnLatency    prometheus.Histogram
	Regenerations  prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed journaling turns by decided action.",
		}, []string{"action"}),
		StateOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_ops_total",
			Help:      "Conversation-state operations by kind and result.",
		}, []string{"op", "result"}),
		Enrichment: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_enrichment_total",
			Help:      "Memory enrichment attempts by outcome.",
		}, []string{"outcome"}),
		Responses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Generated replies by source (llm or fallback).",
		}, []string{"source"}),
		EventDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_drops_total",
			Help:      "Turn events dropped for slow stream subscribers.",
		}),
		EventStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_streams",
			Help:      "Number of connected turn-event stream clients.",
		}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn processing latency in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		Regenerations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_regenerations_total",
			Help:      "Response regenerations forced by contract violations.",
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
