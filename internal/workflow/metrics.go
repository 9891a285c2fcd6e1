package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pantrypal/internal/jobs"
)

// Metrics holds the dispatcher's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	jobsTotal   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	fetchErrors prometheus.Counter
}

// NewMetrics creates the dispatcher collectors and registers them with reg.
// A nil reg disables metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantrypal",
			Subsystem: "hydration",
			Name:      "jobs_total",
			Help:      "Hydration jobs handled, by job type and final state",
		}, []string{"job_type", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pantrypal",
			Subsystem: "hydration",
			Name:      "job_duration_seconds",
			Help:      "Time spent dispatching one hydration job",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job_type"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pantrypal",
			Subsystem: "hydration",
			Name:      "jobs_in_flight",
			Help:      "Hydration jobs currently being handled",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pantrypal",
			Subsystem: "hydration",
			Name:      "fetch_errors_total",
			Help:      "Failed attempts to dequeue a batch",
		}),
	}
	for _, c := range []prometheus.Collector{m.jobsTotal, m.duration, m.inFlight, m.fetchErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(jobType jobs.Type, state State, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	label := string(jobType)
	if !jobType.Known() {
		label = "unknown"
	}
	m.jobsTotal.WithLabelValues(label, string(state)).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *Metrics) fetchFailed() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}
