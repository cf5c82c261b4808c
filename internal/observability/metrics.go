// Package observability holds the Prometheus collectors shared by the
// pipeline and the API's /metrics endpoint.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of pipeline collectors bound to one registry.
type Metrics struct {
	Registry *prometheus.Registry

	rowsProcessed    *prometheus.CounterVec
	trendRecords     prometheus.Counter
	pipelineDuration prometheus.Histogram
	pipelineErrors   prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		rowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoracle_rows_processed_total",
			Help: "Box-score rows run through the metrics calculator, by validation outcome.",
		}, []string{"valid"}),
		trendRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoracle_trend_records_total",
			Help: "Monthly trend records written.",
		}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoracle_pipeline_duration_seconds",
			Help:    "Wall time of a full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		pipelineErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoracle_pipeline_errors_total",
			Help: "Non-fatal errors recorded by pipeline runs.",
		}),
	}
	reg.MustRegister(
		m.rowsProcessed, m.trendRecords, m.pipelineDuration, m.pipelineErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RowsProcessed counts processed rows by validation flag.
func (m *Metrics) RowsProcessed(valid bool, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsProcessed.WithLabelValues(strconv.FormatBool(valid)).Add(float64(n))
}

// TrendRecords counts monthly records written.
func (m *Metrics) TrendRecords(n int) {
	if m == nil || n == 0 {
		return
	}
	m.trendRecords.Add(float64(n))
}

// PipelineRun records one run's duration in seconds and its error count.
func (m *Metrics) PipelineRun(seconds float64, errors int) {
	if m == nil {
		return
	}
	m.pipelineDuration.Observe(seconds)
	if errors > 0 {
		m.pipelineErrors.Add(float64(errors))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
