package sql

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a StatsDriver.
type Metrics struct {
	Statements *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Conflicts  *prometheus.CounterVec
}

// NewMetrics creates the collectors under the given namespace and registers
// them with reg. Collectors already registered with reg are reused, so
// several drivers may share one registry.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statements_total",
				Help:      "Total number of statements executed against the store",
			},
			[]string{"kind", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "statement_duration_seconds",
				Help:      "Statement duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		Conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "version_conflicts_total",
				Help:      "Total number of conditional writes rejected with a stale version",
			},
			[]string{"entity"},
		),
	}
	var err error
	m.Statements, err = register(reg, m.Statements)
	if err != nil {
		return nil, err
	}
	m.Duration, err = register(reg, m.Duration)
	if err != nil {
		return nil, err
	}
	m.Conflicts, err = register(reg, m.Conflicts)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(kind string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Statements.WithLabelValues(kind, status).Inc()
	m.Duration.WithLabelValues(kind).Observe(d.Seconds())
}
