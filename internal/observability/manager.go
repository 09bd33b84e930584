package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brewandbeans/kaizen/internal/config"
)

// ServiceName identifies the server in traces
const ServiceName = "kaizen"

// Config switches the health endpoints, the Prometheus registry and tracing
type Config struct {
	Health        bool          `json:"health"`
	HealthTimeout time.Duration `json:"health_timeout"`
	Metrics       bool          `json:"metrics"`
	Tracing       TracingConfig `json:"tracing"`
}

// DefaultConfig enables health and metrics; tracing stays off until a
// collector is known
func DefaultConfig(serviceVersion string) Config {
	return Config{
		Health:        true,
		HealthTimeout: 5 * time.Second,
		Metrics:       true,
		Tracing: TracingConfig{
			ServiceName:    ServiceName,
			ServiceVersion: serviceVersion,
			SampleRate:     0.1,
		},
	}
}

// ConfigFor derives observability settings from the site configuration.
// Tracing needs the monitoring feature and a collector endpoint. The error
// reporter's sample rate and environment apply when that service is on.
func ConfigFor(cfg *config.Config, serviceVersion, otlpEndpoint string) Config {
	oc := DefaultConfig(serviceVersion)
	oc.Tracing.Environment = cfg.NodeEnv
	oc.Tracing.OTLPEndpoint = otlpEndpoint
	oc.Tracing.Enabled = cfg.IsFeatureEnabled(config.FeatureMonitoring) && otlpEndpoint != ""

	if s := cfg.Services.Sentry; s.IsEnabled() {
		oc.Tracing.SampleRate = s.TracesSampleRate
		if s.Environment != "" {
			oc.Tracing.Environment = s.Environment
		}
	}
	return oc
}

// Manager owns the health checks, metrics and tracer for one server
type Manager struct {
	logger  *zap.SugaredLogger
	health  *HealthManager
	metrics *MetricsManager
	tracer  *Tracer
	started time.Time
}

// NewManager builds the components cfg enables
func NewManager(logger *zap.SugaredLogger, cfg Config) (*Manager, error) {
	tracer, err := NewTracer(logger, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	m := &Manager{logger: logger, tracer: tracer, started: time.Now()}
	if cfg.Health {
		m.health = NewHealthManager(logger)
		m.health.SetTimeout(cfg.HealthTimeout)
	}
	if cfg.Metrics {
		m.metrics = NewMetricsManager(logger)
	}
	return m, nil
}

func (m *Manager) Health() *HealthManager   { return m.health }
func (m *Manager) Metrics() *MetricsManager { return m.metrics }
func (m *Manager) Tracing() *Tracer         { return m.tracer }

// RegisterHealthChecker adds a liveness check
func (m *Manager) RegisterHealthChecker(checker HealthChecker) {
	if m.health != nil {
		m.health.AddHealthChecker(checker)
	}
}

// RegisterReadinessChecker adds a readiness check
func (m *Manager) RegisterReadinessChecker(checker HealthChecker) {
	if m.health != nil {
		m.health.AddReadinessChecker(checker)
	}
}

// Mount registers /healthz, /readyz and /metrics
func (m *Manager) Mount(r chi.Router) {
	if m.health != nil {
		r.Get("/healthz", m.health.HealthzHandler())
		r.Get("/readyz", m.health.ReadyzHandler())
	}
	if m.metrics != nil {
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			m.metrics.SetUptime(m.started)
			m.metrics.Handler().ServeHTTP(w, req)
		})
	}
}

// HTTPMiddleware wraps the router with request metrics outside the tracing span
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		next = m.tracer.Middleware(next)
		if m.metrics != nil {
			next = m.metrics.Middleware(next)
		}
		return next
	}
}

// PublishConfig exposes the feature and service switches as gauges
func (m *Manager) PublishConfig(cfg *config.Config) {
	if m.metrics != nil {
		m.metrics.SetConfig(cfg)
	}
}

// RecordGateOutcome counts a gated render
func (m *Manager) RecordGateOutcome(gate, state string) {
	if m.metrics != nil {
		m.metrics.RecordGateOutcome(gate, state)
	}
}

// RecordIntegrationCall counts an outbound call
func (m *Manager) RecordIntegrationCall(service, outcome string, duration time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordIntegrationCall(service, outcome, duration)
	}
}

// RecordWebhook counts an inbound webhook delivery
func (m *Manager) RecordWebhook(source string, err error) {
	if m.metrics != nil {
		m.metrics.RecordWebhook(source, outcome(err, "ok", "error"))
	}
}

// RecordStorageOperation counts a storage operation
func (m *Manager) RecordStorageOperation(operation string, err error) {
	if m.metrics != nil {
		m.metrics.RecordStorageOperation(operation, outcome(err, "success", "error"))
	}
}

// Close flushes buffered spans
func (m *Manager) Close(ctx context.Context) error {
	if err := m.tracer.Shutdown(ctx); err != nil {
		m.logger.Errorw("Failed to flush traces", "error", err)
		return err
	}
	return nil
}

func outcome(err error, ok, failed string) string {
	if err != nil {
		return failed
	}
	return ok
}
