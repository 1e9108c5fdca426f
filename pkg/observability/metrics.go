package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "axnav"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeDegraded = "degraded"
)

// Metrics holds the collectors. Each Metrics owns its registry so several
// inspectors (or tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	attempts   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	roots      *prometheus.CounterVec

	inFlight prometheus.Gauge
	degraded prometheus.Gauge
	cpu      prometheus.Gauge
	rejected prometheus.Gauge
}

// NewMetrics registers the collectors on reg, or on a fresh registry when
// reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Provider operations by outcome.",
		}, []string{"operation", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Provider call attempts, retries included.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of provider operations, retries included.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed provider operations by error kind.",
		}, []string{"operation", "kind"}),
		roots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roots_selected_total",
			Help:      "Application roots opened, by application name.",
		}, []string{"app"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governor",
			Name:      "in_flight",
			Help:      "Provider calls currently admitted.",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governor",
			Name:      "degraded",
			Help:      "1 while the governor refuses new provider calls.",
		}),
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governor",
			Name:      "cpu_percent",
			Help:      "Last CPU sample taken by the governor.",
		}),
		rejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governor",
			Name:      "rejected",
			Help:      "Calls refused by the governor since start.",
		}),
	}
	reg.MustRegister(m.operations, m.attempts, m.duration, m.errors, m.roots,
		m.inFlight, m.degraded, m.cpu, m.rejected)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record operation metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOperationEnd: func(_ context.Context, e *domain.OperationEvent) {
			m.attempts.WithLabelValues(e.Operation).Add(float64(e.Attempts))
			m.duration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())

			outcome := OutcomeOK
			switch {
			case e.Degraded:
				outcome = OutcomeDegraded
			case e.Err != nil:
				outcome = OutcomeError
				m.errors.WithLabelValues(e.Operation, kindLabel(e.Err)).Inc()
			}
			m.operations.WithLabelValues(e.Operation, outcome).Inc()
		},
		OnRootSelected: func(_ context.Context, e *domain.RootEvent) {
			m.roots.WithLabelValues(e.App.Name).Inc()
		},
	}
}

// ObserveGovernor mirrors a governor state. Pass it to governor.OnChange.
func (m *Metrics) ObserveGovernor(s governor.State) {
	m.inFlight.Set(float64(s.InFlight))
	m.rejected.Set(float64(s.Rejected))
	if s.Degraded {
		m.degraded.Set(1)
	} else {
		m.degraded.Set(0)
	}
	if s.Sampled {
		m.cpu.Set(s.LastSample)
	}
}

// kindLabel names the outermost failure: a retry that gave up on timeouts
// counts as retry-exhausted, not timeout.
func kindLabel(err error) string {
	for _, sentinel := range []*domain.Error{domain.ErrRetryExhausted, domain.ErrTimeout} {
		if errors.Is(err, sentinel) {
			return string(sentinel.Kind)
		}
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return string(de.Kind)
	}
	return "unknown"
}

// Operations exposes the operation counter, mainly for tests.
func (m *Metrics) Operations() *prometheus.CounterVec { return m.operations }

// Attempts exposes the attempt counter.
func (m *Metrics) Attempts() *prometheus.CounterVec { return m.attempts }

// Degraded exposes the degraded-mode gauge.
func (m *Metrics) Degraded() prometheus.Gauge { return m.degraded }
