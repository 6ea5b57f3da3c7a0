package embeddings

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds embedding-related prometheus metrics.
type Metrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates embedding metrics registered against reg. A nil reg
// leaves the metrics unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ideiad_embedding_generation_duration_seconds",
			Help:    "Duration of embedding generation, labeled by model and operation.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"model", "operation"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ideiad_embedding_errors_total",
			Help: "Total embedding generation failures, labeled by model and operation.",
		}, []string{"model", "operation"}),
	}
}

// Observe records one embedding call.
func (m *Metrics) Observe(model, operation string, elapsed time.Duration, err error) {
	m.duration.WithLabelValues(model, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.errors.WithLabelValues(model, operation).Inc()
	}
}
