package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracingConfig selects the OTLP collector and sampling
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
}

// EndFunc closes a span, marking it failed when err is non-nil
type EndFunc func(err error)

// Tracer exports spans over OTLP/HTTP. A nil or disabled Tracer hands out
// no-op spans, so callers never branch on whether tracing is on.
type Tracer struct {
	logger   *zap.SugaredLogger
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// NewTracer builds the exporter and registers the global provider when
// cfg.Enabled is set
func NewTracer(logger *zap.SugaredLogger, cfg TracingConfig) (*Tracer, error) {
	if !cfg.Enabled {
		logger.Debug("Tracing disabled")
		return &Tracer{logger: logger}, nil
	}

	exporter, err := otlptracehttp.New(context.Background(), exporterOptions(cfg.OTLPEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Infow("Tracing enabled",
		"endpoint", cfg.OTLPEndpoint,
		"sample_rate", cfg.SampleRate,
		"environment", cfg.Environment)
	return newTracer(logger, provider, cfg.ServiceName), nil
}

func newTracer(logger *zap.SugaredLogger, provider *sdktrace.TracerProvider, name string) *Tracer {
	return &Tracer{logger: logger, provider: provider, tracer: provider.Tracer(name)}
}

// exporterOptions accepts a full URL or a bare host:port, which is taken to
// be a plaintext local collector
func exporterOptions(endpoint string) []otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	}
	return []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure()}
}

// Enabled reports whether spans are exported
func (t *Tracer) Enabled() bool {
	return t != nil && t.tracer != nil
}

// Start opens a span named name
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, EndFunc) {
	if !t.Enabled() {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Integration opens a span for an outbound call to a hosted service
func (t *Tracer) Integration(ctx context.Context, service, operation string) (context.Context, EndFunc) {
	return t.Start(ctx, "integration."+operation,
		attribute.String("integration.service", service),
		attribute.String("integration.operation", operation))
}

// Webhook opens a span for an inbound webhook delivery
func (t *Tracer) Webhook(ctx context.Context, source, eventType string) (context.Context, EndFunc) {
	return t.Start(ctx, "webhook."+source,
		attribute.String("webhook.source", source),
		attribute.String("webhook.event_type", eventType))
}

// Middleware opens a server span per request, continuing any incoming
// trace context. The span is renamed to the matched route once known.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if !t.Enabled() {
		return next
	}
	propagator := otel.GetTextMapPropagator()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := t.tracer.Start(ctx, r.Method+" "+r.URL.Path,
			oteltrace.WithSpanKind(oteltrace.SpanKindServer),
			oteltrace.WithAttributes(
				semconv.HTTPMethodKey.String(r.Method),
				semconv.HTTPTargetKey.String(r.URL.Path),
				semconv.HTTPHostKey.String(r.Host),
				semconv.HTTPUserAgentKey.String(r.UserAgent()),
			))
		defer span.End()
		propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetName(r.Method + " " + routePattern(r))
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(ww.statusCode))
		if ww.statusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(ww.statusCode))
		}
	})
}

// Shutdown flushes buffered spans
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
