package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withInMemoryTracer installs a synchronous in-memory tracer provider for the
// duration of the test and returns its exporter.
func withInMemoryTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	return exp
}

func TestStartSpan(t *testing.T) {
	t.Run("records the span under its operation name", func(t *testing.T) {
		exp := withInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "VerificationService.VerifyUsername")
		span.End()

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if spans[0].Name != "VerificationService.VerifyUsername" {
			t.Errorf("unexpected span name %q", spans[0].Name)
		}
		if spans[0].InstrumentationScope.Name != tracerName {
			t.Errorf("unexpected tracer name %q", spans[0].InstrumentationScope.Name)
		}
	})

	t.Run("child spans share the parent's trace", func(t *testing.T) {
		exp := withInMemoryTracer(t)

		ctx, parent := StartSpan(context.Background(), "VerificationService.RegisterDelivery")
		_, child := StartSpan(ctx, "sink.record")
		child.End()
		parent.End()

		spans := exp.GetSpans()
		if len(spans) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(spans))
		}
		if spans[0].SpanContext.TraceID() != spans[1].SpanContext.TraceID() {
			t.Error("expected child and parent to share a trace id")
		}
	})
}

func TestSpanHelpers(t *testing.T) {
	t.Run("AddSpanAttributes attaches verification attributes", func(t *testing.T) {
		exp := withInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "VerificationService.VerifyOrder")
		AddSpanAttributes(span,
			attribute.String("order.number", "#1222"),
			attribute.Bool("order.fulfilled", false),
		)
		span.End()

		attrs := exp.GetSpans()[0].Attributes
		found := false
		for _, a := range attrs {
			if a.Key == "order.number" && a.Value.AsString() == "#1222" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected order.number attribute, got %v", attrs)
		}
	})

	t.Run("AddSpanEvent records the event", func(t *testing.T) {
		exp := withInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "VerificationService.RegisterDelivery")
		AddSpanEvent(span, "sink timeout", attribute.String("sink", "webhook"))
		span.End()

		events := exp.GetSpans()[0].Events
		if len(events) != 1 || events[0].Name != "sink timeout" {
			t.Errorf("expected a sink timeout event, got %v", events)
		}
	})

	t.Run("RecordSpanError marks the span failed", func(t *testing.T) {
		exp := withInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "VerificationService.VerifyOrder")
		RecordSpanError(span, errors.New("order not found"))
		span.End()

		recorded := exp.GetSpans()[0]
		if recorded.Status.Code != codes.Error {
			t.Errorf("expected error status, got %v", recorded.Status.Code)
		}
		if recorded.Status.Description != "order not found" {
			t.Errorf("unexpected status description %q", recorded.Status.Description)
		}
		if len(recorded.Events) == 0 {
			t.Error("expected the error to be recorded as an event")
		}
	})

	t.Run("SetSpanSuccess marks the span ok", func(t *testing.T) {
		exp := withInMemoryTracer(t)

		_, span := StartSpan(context.Background(), "VerificationService.VerifyUsername")
		SetSpanSuccess(span)
		span.End()

		if got := exp.GetSpans()[0].Status.Code; got != codes.Ok {
			t.Errorf("expected ok status, got %v", got)
		}
	})

	t.Run("helpers tolerate nil spans and nil errors", func(t *testing.T) {
		AddSpanAttributes(nil, attribute.String("k", "v"))
		AddSpanEvent(nil, "event")
		RecordSpanError(nil, errors.New("x"))
		SetSpanSuccess(nil)

		_, span := StartSpan(context.Background(), "noop")
		defer span.End()
		RecordSpanError(span, nil)
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	t.Run("return the active span's ids", func(t *testing.T) {
		withInMemoryTracer(t)

		ctx, span := StartSpan(context.Background(), "VerificationService.VerifyOrder")
		defer span.End()

		if got := TraceID(ctx); got != span.SpanContext().TraceID().String() {
			t.Errorf("TraceID = %q, want %q", got, span.SpanContext().TraceID())
		}
		if got := SpanID(ctx); got != span.SpanContext().SpanID().String() {
			t.Errorf("SpanID = %q, want %q", got, span.SpanContext().SpanID())
		}
	})

	t.Run("return empty strings without a span", func(t *testing.T) {
		ctx := context.Background()
		if got := TraceID(ctx); got != "" {
			t.Errorf("expected empty trace id, got %q", got)
		}
		if got := SpanID(ctx); got != "" {
			t.Errorf("expected empty span id, got %q", got)
		}
	})
}
