package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementBind("linked")
	m.IncrementBind("linked")
	m.IncrementBind("created")
	m.IncrementAccountsCreated()
	m.IncrementBulkRow("skipped")
	m.ObserveProvider("serviceValidate", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Binds.WithLabelValues("linked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkRows.WithLabelValues("skipped")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderLatency))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementBind("x")
		m.IncrementAccountsCreated()
		m.IncrementUsernameConflicts()
		m.IncrementBulkRow("x")
		m.ObserveProvider("x", time.Now())
	})
}
