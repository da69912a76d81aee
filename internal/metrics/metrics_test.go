package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.FileScanned()
	m.FileScanned()
	m.Violation("phone", "PH01")
	m.FileRepaired()
	m.FileFailed("read")
	m.LeadCaptured("dc")
	m.ObserveScan(150 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.FilesScanned), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Violations.WithLabelValues("phone", "PH01")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FilesRepaired), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FileFailures.WithLabelValues("read")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Leads.WithLabelValues("dc")), 0)
}

func TestMetrics_FreshRegistries(t *testing.T) {
	// registering twice must not panic
	a, b := New(), New()
	a.FileScanned()
	assert.InDelta(t, 0, testutil.ToFloat64(b.FilesScanned), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FileScanned()
		m.Violation("phone", "PH01")
		m.FileRepaired()
		m.FileFailed("read")
		m.ObserveScan(time.Second)
		m.LeadCaptured("md")
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Violation("navigation", "NV02")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `siteaudit_violations_total{category="navigation",rule="NV02"} 1`)
}
