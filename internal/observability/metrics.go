package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/brewandbeans/kaizen/internal/config"
)

// MetricsManager manages Prometheus metrics
type MetricsManager struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	uptime          prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	featureEnabled  *prometheus.GaugeVec
	serviceEnabled  *prometheus.GaugeVec
	gateOutcomes    *prometheus.CounterVec
	integrationOps  *prometheus.CounterVec
	integrationTime *prometheus.HistogramVec
	webhooks        *prometheus.CounterVec
	storageOps      *prometheus.CounterVec
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(logger *zap.SugaredLogger) *MetricsManager {
	mm := &MetricsManager{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	mm.initMetrics()
	mm.registerMetrics()

	return mm
}

func (mm *MetricsManager) initMetrics() {
	mm.uptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kaizen_uptime_seconds",
		Help: "Time since the server started",
	})

	// path is the route pattern, never the raw URL
	mm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaizen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	mm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kaizen_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	mm.featureEnabled = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kaizen_feature_enabled",
			Help: "1 when the feature flag is on",
		},
		[]string{"feature"},
	)

	mm.serviceEnabled = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kaizen_service_enabled",
			Help: "1 when the service integration is on",
		},
		[]string{"service"},
	)

	mm.gateOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaizen_gate_outcomes_total",
			Help: "Final view state per gated render",
		},
		[]string{"gate", "state"},
	)

	mm.integrationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaizen_integration_calls_total",
			Help: "Outbound calls to hosted services",
		},
		[]string{"service", "outcome"},
	)

	mm.integrationTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kaizen_integration_call_duration_seconds",
			Help:    "Outbound call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"service"},
	)

	mm.webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaizen_webhooks_total",
			Help: "Inbound webhooks by source and result",
		},
		[]string{"source", "result"},
	)

	mm.storageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaizen_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)
}

func (mm *MetricsManager) registerMetrics() {
	mm.registry.MustRegister(
		mm.uptime,
		mm.httpRequests,
		mm.httpDuration,
		mm.featureEnabled,
		mm.serviceEnabled,
		mm.gateOutcomes,
		mm.integrationOps,
		mm.integrationTime,
		mm.webhooks,
		mm.storageOps,
	)

	mm.registry.MustRegister(collectors.NewGoCollector())
	mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler for the /metrics endpoint
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry for custom metrics
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// SetUptime sets the uptime metric
func (mm *MetricsManager) SetUptime(startTime time.Time) {
	mm.uptime.Set(time.Since(startTime).Seconds())
}

// SetConfig publishes the feature and service switches
func (mm *MetricsManager) SetConfig(cfg *config.Config) {
	for _, f := range config.AllFeatures {
		mm.featureEnabled.WithLabelValues(f.String()).Set(boolGauge(cfg.IsFeatureEnabled(f)))
	}
	for _, s := range config.AllServices {
		mm.serviceEnabled.WithLabelValues(s.String()).Set(boolGauge(cfg.IsServiceEnabled(s)))
	}
}

// RecordHTTPRequest records an HTTP request
func (mm *MetricsManager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	mm.httpRequests.WithLabelValues(method, path, status).Inc()
	mm.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordGateOutcome counts one gated render
func (mm *MetricsManager) RecordGateOutcome(gate, state string) {
	mm.gateOutcomes.WithLabelValues(gate, state).Inc()
}

// RecordIntegrationCall counts one outbound call
func (mm *MetricsManager) RecordIntegrationCall(service, outcome string, duration time.Duration) {
	mm.integrationOps.WithLabelValues(service, outcome).Inc()
	mm.integrationTime.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordWebhook counts one inbound webhook
func (mm *MetricsManager) RecordWebhook(source, result string) {
	mm.webhooks.WithLabelValues(source, result).Inc()
}

// RecordStorageOperation records a storage operation
func (mm *MetricsManager) RecordStorageOperation(operation, status string) {
	mm.storageOps.WithLabelValues(operation, status).Inc()
}

// Middleware records request count and latency by route pattern. It must
// run inside a chi router so the matched pattern is known.
func (mm *MetricsManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)
		mm.RecordHTTPRequest(r.Method, routePattern(r), http.StatusText(ww.statusCode), time.Since(start))
	})
}

// routePattern returns the chi pattern, or "unmatched" for 404s
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
