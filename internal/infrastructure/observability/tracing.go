package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agent-server/conversation-sync"

// GetTracer returns the tracer for the conversation-sync service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// TaskAttributes returns common attributes for task polling spans.
func TaskAttributes(taskID, conversationID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("task.id", taskID),
		attribute.String("task.parent_conversation_id", conversationID),
	}
}

// StartPollSpan starts a new span for one poll round.
func StartPollSpan(ctx context.Context, taskID, conversationID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "task.poll",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(TaskAttributes(taskID, conversationID)...),
	)
}

// StartSettlementSpan starts a new span for a terminal settlement.
func StartSettlementSpan(ctx context.Context, taskID, conversationID, status string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "task.settle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(
			TaskAttributes(taskID, conversationID),
			attribute.String("task.status", status),
		)...),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
