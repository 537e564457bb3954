package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	classifications *prometheus.CounterVec
	confidence      *prometheus.HistogramVec
	reportsSent     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the recorder on the default registry. Call it once per process.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exovista_classifications_total",
				Help: "Reports produced, by score band and dominant disposition",
			},
			[]string{"band", "disposition"},
		),
		confidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exovista_max_confidence",
				Help:    "Highest class score of each report",
				Buckets: []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
			[]string{"disposition"},
		),
		reportsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exovista_reports_published_total",
				Help: "Reports handed to the report topic, by origin",
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exovista_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exovista_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
	}
}

// RecordClassification counts a report. Band 0 marks externally scored reports.
func (r *Recorder) RecordClassification(band int, disposition string, maxScore float64) {
	r.classifications.WithLabelValues(strconv.Itoa(band), disposition).Inc()
	r.confidence.WithLabelValues(disposition).Observe(maxScore)
}

func (r *Recorder) RecordReportPublished(source string) {
	r.reportsSent.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
