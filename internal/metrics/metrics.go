package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Timeline edits by operation (add, update, split, undo, ...) and result
	EditOperationsTotal *prometheus.CounterVec

	// Open live workspaces
	OpenWorkspaces prometheus.Gauge

	// Export pipeline: storage upload and event publish
	ExportTotal       *prometheus.CounterVec
	EventPublishTotal *prometheus.CounterVec

	ThumbnailDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. Collectors that are
// already registered are reused.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "editor_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "editor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		EditOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "editor_operations_total",
			Help: "Timeline edit operations by outcome",
		}, []string{"operation", "result"}),

		OpenWorkspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "editor_open_workspaces",
			Help: "Editing sessions currently held in memory",
		}),

		ExportTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "editor_exports_total",
			Help: "Timeline submissions written to storage",
		}, []string{"status"}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "editor_event_publish_total",
			Help: "Total number of event publish operations",
		}, []string{"event_type", "status"}),

		ThumbnailDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "editor_thumbnail_duration_seconds",
			Help:    "Time to render a thumbnail strip",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	m.HTTPRequestTotal = registerOrGet(reg, m.HTTPRequestTotal).(*prometheus.CounterVec)
	m.HTTPRequestDuration = registerOrGet(reg, m.HTTPRequestDuration).(*prometheus.HistogramVec)
	m.EditOperationsTotal = registerOrGet(reg, m.EditOperationsTotal).(*prometheus.CounterVec)
	m.OpenWorkspaces = registerOrGet(reg, m.OpenWorkspaces).(prometheus.Gauge)
	m.ExportTotal = registerOrGet(reg, m.ExportTotal).(*prometheus.CounterVec)
	m.EventPublishTotal = registerOrGet(reg, m.EventPublishTotal).(*prometheus.CounterVec)
	m.ThumbnailDuration = registerOrGet(reg, m.ThumbnailDuration).(prometheus.Histogram)
	return m
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// Edit records the outcome of one timeline operation.
func (m *Metrics) Edit(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.EditOperationsTotal.WithLabelValues(operation, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts and times requests, labelled by mux route template so ids
// do not explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.HTTPRequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
