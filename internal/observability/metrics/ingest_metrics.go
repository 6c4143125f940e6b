package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics captures ingestion pipeline health signals.
type IngestMetrics struct {
	billsSaved   prometheus.Counter
	billsSkipped prometheus.Counter
	billsFailed  prometheus.Counter
	jobDuration  *prometheus.HistogramVec
}

// NewIngestMetrics registers the ingestion instruments on the default registerer.
func NewIngestMetrics(cfg Config) *IngestMetrics {
	return newIngestMetrics(prometheus.DefaultRegisterer, cfg)
}

func newIngestMetrics(registerer prometheus.Registerer, cfg Config) *IngestMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	bills := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "pharmadesk_ingest_bills_total",
		Help:        "Bills handled by the ingestion pipeline, by outcome.",
		ConstLabels: labels,
	}, []string{"outcome"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "pharmadesk_ingest_job_duration_seconds",
		Help:        "End-to-end ingestion job latency by source kind.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: labels,
	}, []string{"source_kind"})

	registerer.MustRegister(bills, jobDuration)

	return &IngestMetrics{
		billsSaved:   bills.WithLabelValues("saved"),
		billsSkipped: bills.WithLabelValues("skipped"),
		billsFailed:  bills.WithLabelValues("failed"),
		jobDuration:  jobDuration,
	}
}

// BillSaved increments the saved bill count.
func (m *IngestMetrics) BillSaved() {
	if m == nil {
		return
	}
	m.billsSaved.Inc()
}

// BillSkipped increments the skipped bill count.
func (m *IngestMetrics) BillSkipped() {
	if m == nil {
		return
	}
	m.billsSkipped.Inc()
}

// BillFailed increments the failed bill count.
func (m *IngestMetrics) BillFailed() {
	if m == nil {
		return
	}
	m.billsFailed.Inc()
}

// ObserveJob records the duration of a finished ingestion job.
func (m *IngestMetrics) ObserveJob(sourceKind string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(sourceKind).Observe(d.Seconds())
}
