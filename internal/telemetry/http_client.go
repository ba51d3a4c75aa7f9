package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HTTPClientConfig configures an instrumented HTTP client
type HTTPClientConfig struct {
	ServiceName string // external service, e.g. "formio"
	Timeout     time.Duration
}

// NewInstrumentedHTTPClient creates an HTTP client whose requests are traced
// and carry the W3C trace context to the remote service.
func NewInstrumentedHTTPClient(cfg HTTPClientConfig) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(
			http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("%s %s", cfg.ServiceName, r.Method)
			}),
			otelhttp.WithSpanOptions(
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attribute.String("external.service", cfg.ServiceName)),
			),
		),
	}
}

// ExternalServiceCallAttrs describes a call to a service without an HTTP
// client of ours in between, such as the AWS SDKs.
type ExternalServiceCallAttrs struct {
	Service    string // s3, ses
	Operation  string
	ResourceID string
}

// TraceExternalCall starts a client span named "<service>.<operation>".
func TraceExternalCall(ctx context.Context, attrs ExternalServiceCallAttrs) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("external-api").Start(ctx, attrs.Service+"."+attrs.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("external.service", attrs.Service),
			attribute.String("external.operation", attrs.Operation),
		),
	)
	if attrs.ResourceID != "" {
		span.SetAttributes(attribute.String("external.resource_id", attrs.ResourceID))
	}
	return ctx, span
}

// RecordExternalCallError marks span as failed
func RecordExternalCallError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

// RecordExternalCallSuccess marks span as successful
func RecordExternalCallSuccess(span trace.Span, sizeBytes int64) {
	if sizeBytes > 0 {
		span.SetAttributes(attribute.Int64("external.size_bytes", sizeBytes))
	}
	span.SetStatus(codes.Ok, "")
}
