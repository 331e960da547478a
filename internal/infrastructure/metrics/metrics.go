// Package metrics exposes Prometheus instrumentation for the portal client,
// registrations and grouping runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

const namespace = "tlu_group_hub"

// Metrics holds every collector of the process. Use New with a fresh registry
// in tests.
type Metrics struct {
	registry *prometheus.Registry

	portalRequests *prometheus.CounterVec
	portalLatency  *prometheus.HistogramVec

	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec

	groupingRuns     *prometheus.CounterVec
	groupingDuration prometheus.Histogram
	stageSwaps       *prometheus.CounterVec
	stageCapReached  *prometheus.CounterVec
	cohortGap        *prometheus.GaugeVec
	cohortStudents   *prometheus.GaugeVec
}

// New registers the collectors on a new registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,

		portalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "requests_total",
			Help:      "Portal HTTP calls by endpoint and status code (or \"error\").",
		}, []string{"endpoint", "outcome"}),
		portalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "request_duration_seconds",
			Help:      "Latency of portal HTTP calls in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms .. ~12.8s
		}, []string{"endpoint"}),

		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Submitted registrations by class and outcome.",
		}, []string{"class", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),

		groupingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouping",
			Name:      "runs_total",
			Help:      "Grouping runs by class scope.",
		}, []string{"class"}),
		groupingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grouping",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a grouping run, storage included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		stageSwaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouping",
			Name:      "stage_changes_total",
			Help:      "Swaps, moves and role changes committed by each pipeline stage.",
		}, []string{"stage", "kind"}),
		stageCapReached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grouping",
			Name:      "stage_cap_reached_total",
			Help:      "Stages that stopped on their iteration cap.",
		}, []string{"stage"}),
		cohortGap: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grouping",
			Name:      "cohort_gap",
			Help:      "Max-min group average of the last run, per session.",
		}, []string{"session"}),
		cohortStudents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "grouping",
			Name:      "cohort_students",
			Help:      "Students grouped in the last run, per session.",
		}, []string{"session"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.portalRequests, m.portalLatency,
		m.registrations, m.logins,
		m.groupingRuns, m.groupingDuration, m.stageSwaps, m.stageCapReached,
		m.cohortGap, m.cohortStudents,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePortalRequest matches tlu.RequestObserver.
func (m *Metrics) ObservePortalRequest(endpoint, outcome string, elapsed time.Duration) {
	m.portalRequests.WithLabelValues(endpoint, outcome).Inc()
	m.portalLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveLogin counts a login attempt; outcome is "ok", "rejected" or "error".
func (m *Metrics) ObserveLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// ObserveRegistration counts a submitted registration.
func (m *Metrics) ObserveRegistration(class, outcome string) {
	m.registrations.WithLabelValues(class, outcome).Inc()
}

// ObserveGrouping records a finished run. class is "all" when every class
// was grouped together.
func (m *Metrics) ObserveGrouping(class string, res grouping.Result, elapsed time.Duration) {
	if class == "" {
		class = "all"
	}
	m.groupingRuns.WithLabelValues(class).Inc()
	m.groupingDuration.Observe(elapsed.Seconds())

	for _, c := range res.Cohorts {
		m.cohortGap.WithLabelValues(c.Session).Set(c.Gap())
		m.cohortStudents.WithLabelValues(c.Session).Set(float64(c.Size()))
		for _, st := range c.Stages {
			m.stageSwaps.WithLabelValues(st.Stage, "swap").Add(float64(st.Swaps))
			m.stageSwaps.WithLabelValues(st.Stage, "move").Add(float64(st.Moves))
			m.stageSwaps.WithLabelValues(st.Stage, "role").Add(float64(st.RoleChanges))
			if st.CapReached {
				m.stageCapReached.WithLabelValues(st.Stage).Inc()
			}
		}
	}
}
