// Package observability provides health checks, metrics and tracing for the
// site server.
package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Health states
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// HealthChecker is a component that can report its health
type HealthChecker interface {
	// HealthCheck returns nil if healthy
	HealthCheck(ctx context.Context) error
	Name() string
}

// CheckFunc adapts a function to HealthChecker
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckFunc) Name() string                          { return c.CheckName }
func (c CheckFunc) HealthCheck(ctx context.Context) error { return c.Fn(ctx) }

// Pinger is anything with a cheap liveness probe, e.g. the store
type Pinger interface {
	Ping() error
}

// PingCheck wraps a Pinger as a HealthChecker
func PingCheck(name string, p Pinger) HealthChecker {
	return CheckFunc{CheckName: name, Fn: func(context.Context) error { return p.Ping() }}
}

// HealthStatus is the status of one component
type HealthStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthResponse is the body of /healthz and /readyz
type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Components []HealthStatus `json:"components"`
}

// HealthManager runs liveness and readiness checks
type HealthManager struct {
	logger    *zap.SugaredLogger
	liveness  []HealthChecker
	readiness []HealthChecker
	timeout   time.Duration
}

// NewHealthManager creates a new health manager
func NewHealthManager(logger *zap.SugaredLogger) *HealthManager {
	return &HealthManager{
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// AddHealthChecker registers a liveness check
func (hm *HealthManager) AddHealthChecker(checker HealthChecker) {
	hm.liveness = append(hm.liveness, checker)
}

// AddReadinessChecker registers a readiness check
func (hm *HealthManager) AddReadinessChecker(checker HealthChecker) {
	hm.readiness = append(hm.readiness, checker)
}

// SetTimeout sets the timeout for a full round of checks
func (hm *HealthManager) SetTimeout(timeout time.Duration) {
	hm.timeout = timeout
}

// HealthzHandler serves /healthz
func (hm *HealthManager) HealthzHandler() http.HandlerFunc {
	return hm.handler(hm.liveness, StatusHealthy, StatusUnhealthy)
}

// ReadyzHandler serves /readyz
func (hm *HealthManager) ReadyzHandler() http.HandlerFunc {
	return hm.handler(hm.readiness, StatusReady, StatusNotReady)
}

func (hm *HealthManager) handler(checks []HealthChecker, ok, failed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), hm.timeout)
		defer cancel()

		response := hm.run(ctx, checks, ok, failed)

		statusCode := http.StatusOK
		if response.Status != ok {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			hm.logger.Errorw("Failed to encode health response", "error", err)
		}
	}
}

func (hm *HealthManager) run(ctx context.Context, checks []HealthChecker, ok, failed string) HealthResponse {
	response := HealthResponse{
		Status:     ok,
		Timestamp:  time.Now().UTC(),
		Components: make([]HealthStatus, 0, len(checks)),
	}

	for _, checker := range checks {
		start := time.Now()
		status := HealthStatus{Name: checker.Name(), Status: ok}

		if err := checker.HealthCheck(ctx); err != nil {
			status.Status = failed
			status.Error = err.Error()
			response.Status = failed
			hm.logger.Warnw("Health check failed",
				"component", checker.Name(),
				"error", err)
		}

		status.Latency = time.Since(start).String()
		response.Components = append(response.Components, status)
	}

	return response
}

// IsHealthy returns true if all liveness checks pass
func (hm *HealthManager) IsHealthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), hm.timeout)
	defer cancel()
	return hm.run(ctx, hm.liveness, StatusHealthy, StatusUnhealthy).Status == StatusHealthy
}

// IsReady returns true if all readiness checks pass
func (hm *HealthManager) IsReady() bool {
	ctx, cancel := context.WithTimeout(context.Background(), hm.timeout)
	defer cancel()
	return hm.run(ctx, hm.readiness, StatusReady, StatusNotReady).Status == StatusReady
}
