package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessEvents traces workflow steps above the HTTP and database layers,
// such as "task submitted" or "results exported".
type BusinessEvents struct {
	tracer trace.Tracer
}

func NewBusinessEvents() *BusinessEvents {
	return &BusinessEvents{tracer: otel.Tracer("business-events")}
}

// TaskEventAttrs are the attributes of a task workflow span
type TaskEventAttrs struct {
	TaskID   string
	FormID   string
	ActorID  string
	Count    int // tasks created in one request
	Late     bool
	Decision string
}

// TraceTaskEvent starts a span named "task.<event>".
func (be *BusinessEvents) TraceTaskEvent(ctx context.Context, event string, attrs TaskEventAttrs) (context.Context, trace.Span) {
	ctx, span := be.tracer.Start(ctx, "task."+event,
		trace.WithAttributes(
			attribute.String("task.event", event),
			attribute.String("user.id", attrs.ActorID),
		),
	)

	if attrs.TaskID != "" {
		span.SetAttributes(attribute.String("task.id", attrs.TaskID))
	}
	if attrs.FormID != "" {
		span.SetAttributes(attribute.String("form.id", attrs.FormID))
	}
	if attrs.Count > 0 {
		span.SetAttributes(attribute.Int("task.count", attrs.Count))
	}
	if attrs.Late {
		span.SetAttributes(attribute.Bool("task.late", true))
	}
	if attrs.Decision != "" {
		span.SetAttributes(attribute.String("review.decision", attrs.Decision))
	}
	return ctx, span
}

// TraceExport starts a span for one export job.
func (be *BusinessEvents) TraceExport(ctx context.Context, jobID, formID, userID string) (context.Context, trace.Span) {
	return be.tracer.Start(ctx, "results.export",
		trace.WithAttributes(
			attribute.String("export.job_id", jobID),
			attribute.String("form.id", formID),
			attribute.String("user.id", userID),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}
