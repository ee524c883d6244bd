package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PipelineRunsTotal   *prometheus.CounterVec
	PipelineRunDuration prometheus.Histogram
	PipelineParsedRows  prometheus.Gauge

	ExportAttemptsTotal *prometheus.CounterVec
	ExportRowsTotal     prometheus.Counter

	RetentionDeletedTotal *prometheus.CounterVec

	SchedulerRunsTotal    *prometheus.CounterVec
	SchedulerSkippedTotal *prometheus.CounterVec
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		PipelineRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Total number of tariffs pipeline runs.",
			},
			[]string{"status"}, // success, failed
		),
		PipelineRunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_run_duration_seconds",
				Help:    "Duration of tariffs pipeline runs.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
			},
		),
		PipelineParsedRows: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipeline_parsed_rows",
				Help: "Normalized rows produced by the last successful run.",
			},
		),
		ExportAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "export_attempts_total",
				Help: "Spreadsheet export attempts by outcome.",
			},
			[]string{"status"},
		),
		ExportRowsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "export_rows_total",
				Help: "Rows written to spreadsheets.",
			},
		),
		RetentionDeletedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retention_deleted_total",
				Help: "Items removed by retention, by phase.",
			},
			[]string{"phase"},
		),
		SchedulerRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_task_runs_total",
				Help: "Scheduled task executions by outcome.",
			},
			[]string{"task", "status"},
		),
		SchedulerSkippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_task_skipped_total",
				Help: "Scheduled task invocations skipped because a previous run was still active.",
			},
			[]string{"task"},
		),
	}
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
