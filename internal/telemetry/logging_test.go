package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// bufferLogger builds a logger around the trace-correlating handler that
// writes JSON lines into buf, so tests can decode what NewLogger would emit.
func bufferLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	base := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return slog.New(&traceHandler{baseHandler: base})
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLoggerTraceCorrelation(t *testing.T) {
	t.Run("log lines inside a span carry its trace and span ids", func(t *testing.T) {
		exp := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		t.Cleanup(func() { otel.SetTracerProvider(prev) })

		ctx, span := StartSpan(context.Background(), "VerificationService.VerifyOrder")
		defer span.End()

		var buf bytes.Buffer
		logger := bufferLogger(&buf, slog.LevelInfo)
		logger.InfoContext(ctx, "order verified", "action", "verify_order")

		entry := decodeLogLine(t, &buf)
		if entry["trace_id"] != span.SpanContext().TraceID().String() {
			t.Errorf("expected trace_id %s, got %v", span.SpanContext().TraceID(), entry["trace_id"])
		}
		if entry["span_id"] != span.SpanContext().SpanID().String() {
			t.Errorf("expected span_id %s, got %v", span.SpanContext().SpanID(), entry["span_id"])
		}
		if entry["action"] != "verify_order" {
			t.Errorf("expected the caller's attributes to survive, got %v", entry)
		}
	})

	t.Run("log lines outside a span carry no trace fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := bufferLogger(&buf, slog.LevelInfo)
		logger.InfoContext(context.Background(), "sink selected", "sink", "memory")

		entry := decodeLogLine(t, &buf)
		if _, ok := entry["trace_id"]; ok {
			t.Error("expected no trace_id without an active span")
		}
		if _, ok := entry["span_id"]; ok {
			t.Error("expected no span_id without an active span")
		}
	})

	t.Run("level filtering applies", func(t *testing.T) {
		var buf bytes.Buffer
		logger := bufferLogger(&buf, slog.LevelWarn)
		logger.InfoContext(context.Background(), "candidate lookup failed")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
		}
	})

	t.Run("WithAttrs and WithGroup survive the handler wrapper", func(t *testing.T) {
		var buf bytes.Buffer
		logger := bufferLogger(&buf, slog.LevelInfo).
			With("sink", "postgres").
			WithGroup("registration")
		logger.InfoContext(context.Background(), "recorded", "id", "REG-1")

		entry := decodeLogLine(t, &buf)
		if entry["sink"] != "postgres" {
			t.Errorf("expected pre-set attr to survive, got %v", entry)
		}
		group, ok := entry["registration"].(map[string]any)
		if !ok || group["id"] != "REG-1" {
			t.Errorf("expected grouped attrs, got %v", entry)
		}
	})
}
