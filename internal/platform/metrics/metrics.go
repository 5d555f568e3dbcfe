package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the binder.
type Metrics struct {
	Binds             *prometheus.CounterVec
	AccountsCreated   prometheus.Counter
	UsernameConflicts prometheus.Counter
	BulkRows          *prometheus.CounterVec
	ProviderLatency   *prometheus.HistogramVec
}

// New creates the metrics and registers them on reg.
// Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Binds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casbinder_binds_total",
			Help: "Identity bind attempts by outcome",
		}, []string{"outcome"}),
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "casbinder_accounts_created_total",
			Help: "Accounts created on first provider login",
		}),
		UsernameConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "casbinder_username_conflicts_total",
			Help: "Binds that had to pick a suffixed username",
		}),
		BulkRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casbinder_bulk_rows_total",
			Help: "Bulk assignment rows by outcome",
		}, []string{"outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casbinder_provider_request_duration_seconds",
			Help:    "Latency of calls to the identity provider",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
	}
}

// IncrementBind records one bind attempt.
func (m *Metrics) IncrementBind(outcome string) {
	if m == nil {
		return
	}
	m.Binds.WithLabelValues(outcome).Inc()
}

// IncrementAccountsCreated increments the accounts created counter by 1.
func (m *Metrics) IncrementAccountsCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

// IncrementUsernameConflicts increments the suffixed-username counter by 1.
func (m *Metrics) IncrementUsernameConflicts() {
	if m == nil {
		return
	}
	m.UsernameConflicts.Inc()
}

// IncrementBulkRow records one bulk assignment row.
func (m *Metrics) IncrementBulkRow(outcome string) {
	if m == nil {
		return
	}
	m.BulkRows.WithLabelValues(outcome).Inc()
}

// ObserveProvider records the duration of a provider call started at start.
func (m *Metrics) ObserveProvider(call string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
