package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelToolTraceSink records tool traces as client spans on an OTel tracer.
type OTelToolTraceSink struct {
	tracer trace.Tracer
}

// NewOTelToolTraceSink constructs a ToolTraceSink that emits one client span
// per tool invocation. Uses the global TracerProvider; configure it via
// otel.SetTracerProvider before running conversations (typically done via
// clue.ConfigureOpenTelemetry or OTEL_* environment variables).
func NewOTelToolTraceSink() ToolTraceSink {
	return &OTelToolTraceSink{tracer: otel.Tracer("goa.design/agentloop")}
}

// RecordToolTrace emits a span spanning the tool invocation interval. The span
// carries the tool name, argument payload and success flag; failures record the
// error and set an error status.
func (s *OTelToolTraceSink) RecordToolTrace(ctx context.Context, t ToolTrace) {
	_, span := s.tracer.Start(
		ctx,
		"agentloop.tool",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(t.StartTime),
		trace.WithAttributes(
			attribute.String("agentloop.tool", t.Tool),
			attribute.String("agentloop.arguments", t.Arguments),
			attribute.Bool("agentloop.success", t.Success),
			attribute.Int64("agentloop.duration_ms", t.Duration.Milliseconds()),
		),
	)
	if t.Success {
		span.SetStatus(codes.Ok, "ok")
	} else {
		span.RecordError(errors.New(t.Error))
		span.SetStatus(codes.Error, "tool invocation failed")
	}
	span.End(trace.WithTimestamp(t.EndTime))
}
