package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationMiddleware enriches the request context with correlation metadata.
// It runs after RequestIDMiddleware: a client-supplied X-Correlation-ID ties
// several requests of one business flow together (e.g. a CLI bulk assign),
// and falls back to the request ID. The ID travels in baggage so export jobs
// and email sends started by the request can log it.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = c.GetString(requestIDKey)
		}
		if correlationID == "" {
			c.Next()
			return
		}

		c.Set("correlation_id", correlationID)
		c.Header("X-Correlation-ID", correlationID)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
		}

		ctx := c.Request.Context()
		if member, err := baggage.NewMember("correlation_id", correlationID); err == nil {
			if bag, err := baggage.FromContext(ctx).SetMember(member); err == nil {
				ctx = baggage.ContextWithBaggage(ctx, bag)
			}
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SpanEnrichmentMiddleware enriches spans with additional context after request processing
// Should be added after all other handlers to capture final state
func SpanEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Enrich span with response metadata
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			statusCode := c.Writer.Status()

			// Client errors are the caller's fault and leave the span unset.
			switch {
			case statusCode >= 500:
				span.SetStatus(codes.Error, "Server error")
			case statusCode < 400:
				span.SetStatus(codes.Ok, "")
			}

			// Record response size if available
			if responseSize := c.Writer.Size(); responseSize > 0 {
				span.SetAttributes(
					attribute.Int64("http.response.size_bytes", int64(responseSize)),
				)
			}

			if cacheStatus := c.Writer.Header().Get("X-Cache"); cacheStatus != "" {
				span.SetAttributes(attribute.String("http.cache", cacheStatus))
			}
			if admin, ok := util.GetImpersonator(c); ok {
				span.SetAttributes(attribute.String("user.impersonator_id", admin.ID))
			}
		}
	}
}

// GetCorrelationIDFromContext extracts correlation ID from context
// Useful in background tasks that need to maintain correlation
func GetCorrelationIDFromContext(ctx context.Context) string {
	return baggage.FromContext(ctx).Member("correlation_id").Value()
}
