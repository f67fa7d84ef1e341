// Package metrics defines the Prometheus metrics of sandbox operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the sandbox metrics. Build one per registry.
type Metrics struct {
	SessionsActive prometheus.Gauge
	SessionsTotal  *prometheus.CounterVec

	ActionsTotal *prometheus.CounterVec

	PreviewDuration *prometheus.HistogramVec
	RulesTotal      *prometheus.CounterVec
	ChangesTotal    *prometheus.CounterVec

	CommitsTotal   *prometheus.CounterVec
	ManifestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all sandbox metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "phosra_sandbox_sessions_active",
			Help: "Number of live sandbox sessions.",
		}),

		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosra_sandbox_sessions_total",
			Help: "Sandbox sessions created, by provider.",
		}, []string{"provider"}),

		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosra_sandbox_actions_total",
			Help: "Dispatched sandbox actions, by action and result (ok, rejected).",
		}, []string{"action", "result"}),

		PreviewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phosra_sandbox_preview_duration_seconds",
			Help:    "Duration of preview runs including pacing delay.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),

		RulesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosra_sandbox_rules_total",
			Help: "Enabled rules seen by preview runs, by outcome (applied, skipped, platform_managed).",
		}, []string{"provider", "outcome"}),

		ChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosra_sandbox_changes_total",
			Help: "Change deltas produced by preview runs.",
		}, []string{"provider"}),

		CommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosra_sandbox_commits_total",
			Help: "Previews committed or discarded.",
		}, []string{"provider", "outcome"}),

		ManifestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phosra_manifests_exported_total",
			Help: "Manifests exported, by destination (inline, file, archive).",
		}, []string{"destination"}),
	}

	reg.MustRegister(
		m.SessionsActive,
		m.SessionsTotal,
		m.ActionsTotal,
		m.PreviewDuration,
		m.RulesTotal,
		m.ChangesTotal,
		m.CommitsTotal,
		m.ManifestsTotal,
	)

	return m
}

// ObserveRun records the counts of one preview run.
func (m *Metrics) ObserveRun(provider string, applied, skipped, platformManaged, changes int) {
	if m == nil {
		return
	}
	m.RulesTotal.WithLabelValues(provider, "applied").Add(float64(applied))
	m.RulesTotal.WithLabelValues(provider, "skipped").Add(float64(skipped))
	m.RulesTotal.WithLabelValues(provider, "platform_managed").Add(float64(platformManaged))
	m.ChangesTotal.WithLabelValues(provider).Add(float64(changes))
}

// Action records one dispatched action.
func (m *Metrics) Action(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.ActionsTotal.WithLabelValues(name, result).Inc()
}
