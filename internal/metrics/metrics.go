// Package metrics provides Prometheus collectors for audits, repairs and
// lead capture. Every method is safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the siteaudit collectors and the registry they live on.
type Metrics struct {
	registry *prometheus.Registry

	// Pages scanned by the pipeline
	FilesScanned prometheus.Counter

	// Violations by category and rule
	Violations *prometheus.CounterVec

	// Files rewritten by the repairer
	FilesRepaired prometheus.Counter

	// Per-file failures by operation ("read", "repair")
	FileFailures *prometheus.CounterVec

	// Whole-scan latency
	ScanDuration prometheus.Histogram

	// Leads captured by resolved region
	Leads *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,

		FilesScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "siteaudit_files_scanned_total",
			Help: "Total number of pages scanned",
		}),

		Violations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "siteaudit_violations_total",
			Help: "Total violations by category and rule",
		}, []string{"category", "rule"}),

		FilesRepaired: f.NewCounter(prometheus.CounterOpts{
			Name: "siteaudit_files_repaired_total",
			Help: "Total number of pages rewritten by repair",
		}),

		FileFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "siteaudit_file_failures_total",
			Help: "Total per-file failures by operation",
		}, []string{"op"}),

		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "siteaudit_scan_duration_seconds",
			Help:    "Duration of a full site scan",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		Leads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "siteaudit_leads_total",
			Help: "Total leads captured by region",
		}, []string{"region"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FileScanned counts one scanned page.
func (m *Metrics) FileScanned() {
	if m != nil {
		m.FilesScanned.Inc()
	}
}

// Violation counts one violation.
func (m *Metrics) Violation(category, rule string) {
	if m != nil {
		m.Violations.WithLabelValues(category, rule).Inc()
	}
}

// FileRepaired counts one rewritten page.
func (m *Metrics) FileRepaired() {
	if m != nil {
		m.FilesRepaired.Inc()
	}
}

// FileFailed counts one per-file failure.
func (m *Metrics) FileFailed(op string) {
	if m != nil {
		m.FileFailures.WithLabelValues(op).Inc()
	}
}

// ObserveScan records the duration of a full scan.
func (m *Metrics) ObserveScan(d time.Duration) {
	if m != nil {
		m.ScanDuration.Observe(d.Seconds())
	}
}

// LeadCaptured counts one lead for a region.
func (m *Metrics) LeadCaptured(region string) {
	if m != nil {
		m.Leads.WithLabelValues(region).Inc()
	}
}
