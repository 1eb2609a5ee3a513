package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	ingestTotal     *prometheus.CounterVec
	ingestDuration  *prometheus.HistogramVec
	ingestInFlight  prometheus.Gauge
	chunksPerRecord *prometheus.HistogramVec
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pa",
			Subsystem: "worker",
			Name:      "record_ingest_total",
			Help:      "Total ingested records by status.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pa",
			Subsystem: "worker",
			Name:      "record_ingest_duration_seconds",
			Help:      "Record ingestion duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pa",
			Subsystem: "worker",
			Name:      "record_ingest_in_flight",
			Help:      "Number of in-flight record ingestions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksPerRecord := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pa",
			Subsystem: "worker",
			Name:      "chunks_per_record",
			Help:      "Distribution of embedded chunks per ingested record.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pa",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between record change and ingestion start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, ingestInFlight, chunksPerRecord, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		ingestTotal:     ingestTotal,
		ingestDuration:  ingestDuration,
		ingestInFlight:  ingestInFlight,
		chunksPerRecord: chunksPerRecord,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartIngest() {
	m.ingestInFlight.Inc()
}

func (m *WorkerMetrics) FinishIngest(service, status string, duration time.Duration, chunkCount int) {
	m.ingestInFlight.Dec()

	if status == "" {
		status = "unknown"
	}
	m.ingestTotal.WithLabelValues(service, status).Inc()
	m.ingestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if chunkCount > 0 {
		m.chunksPerRecord.WithLabelValues(service).Observe(float64(chunkCount))
	}
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
