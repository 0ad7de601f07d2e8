package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "supportflow"

// StartRequestSpan starts the root span for one inbound support request.
func StartRequestSpan(ctx context.Context, requestID, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "request",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("session.id", sessionID),
		),
	)
}

// StartStageSpan starts a span for one pipeline stage of a request.
func StartStageSpan(ctx context.Context, stage, requestID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "stage."+stage,
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("pipeline.stage", stage),
		),
	)
}

// StartActionSpan starts a span for one plan action dispatch.
func StartActionSpan(ctx context.Context, actionID, actionType, component string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "action",
		trace.WithAttributes(
			attribute.String("action.id", actionID),
			attribute.String("action.type", actionType),
			attribute.String("action.component", component),
		),
	)
}
