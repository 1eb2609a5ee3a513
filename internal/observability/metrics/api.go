package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal     *prometheus.CounterVec
	chatContextSources    *prometheus.HistogramVec
	chatDuration          *prometheus.HistogramVec
	semanticFallbackTotal *prometheus.CounterVec
	fusionDroppedTotal    *prometheus.CounterVec
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pa",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by retrieval outcome.",
		},
		[]string{"service", "outcome"},
	)
	chatContextSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pa",
			Subsystem: "chat",
			Name:      "context_sources",
			Help:      "Distribution of fused context items per chat request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 12},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pa",
			Subsystem: "chat",
			Name:      "stream_duration_seconds",
			Help:      "Chat request duration from receipt to stream end.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	semanticFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pa",
			Subsystem: "chat",
			Name:      "semantic_fallback_total",
			Help:      "Total chat requests served by the degraded lexical retrieval path.",
		},
		[]string{"service"},
	)
	fusionDroppedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pa",
			Subsystem: "chat",
			Name:      "fusion_dropped_total",
			Help:      "Total retrieved items dropped by dedup or the context budget.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatContextSources,
		chatDuration,
		semanticFallbackTotal,
		fusionDroppedTotal,
	)

	return &APIMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		chatRequestsTotal:     chatRequestsTotal,
		chatContextSources:    chatContextSources,
		chatDuration:          chatDuration,
		semanticFallbackTotal: semanticFallbackTotal,
		fusionDroppedTotal:    fusionDroppedTotal,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordChatObservation tracks one chat request: how many fused context
// items grounded it, how many retrieved items fusion dropped, whether
// semantic retrieval degraded, and how long the whole stream took.
func (m *APIMetrics) RecordChatObservation(service string, fusedSources, droppedSources int, degraded bool, duration time.Duration) {
	outcome := "grounded"
	if fusedSources == 0 {
		outcome = "no_context"
	}
	m.chatRequestsTotal.WithLabelValues(service, outcome).Inc()
	m.chatContextSources.WithLabelValues(service).Observe(float64(fusedSources))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
	if droppedSources > 0 {
		m.fusionDroppedTotal.WithLabelValues(service).Add(float64(droppedSources))
	}
	if degraded {
		m.semanticFallbackTotal.WithLabelValues(service).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
