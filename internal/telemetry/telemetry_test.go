package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// discardTraceExporter and discardMetricExporter let Initialize run its full
// provider wiring in tests without an OTLP endpoint to ship to.
type discardTraceExporter struct{}

func (discardTraceExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error {
	return nil
}

func (discardTraceExporter) Shutdown(_ context.Context) error { return nil }

type discardMetricExporter struct{}

func (discardMetricExporter) Temporality(_ sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (discardMetricExporter) Aggregation(_ sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (discardMetricExporter) Export(_ context.Context, _ *metricdata.ResourceMetrics) error {
	return nil
}

func (discardMetricExporter) ForceFlush(_ context.Context) error { return nil }

func (discardMetricExporter) Shutdown(_ context.Context) error { return nil }

func serviceConfig() Config {
	return Config{
		ServiceName:    "handoff-api",
		ServiceVersion: "0.1.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("accepts the service defaults", func(t *testing.T) {
		cfg := serviceConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("requires a service name", func(t *testing.T) {
		cfg := serviceConfig()
		cfg.ServiceName = ""
		if err := cfg.Validate(); !errors.Is(err, ErrMissingServiceName) {
			t.Errorf("expected ErrMissingServiceName, got %v", err)
		}
	})

	t.Run("requires a service version", func(t *testing.T) {
		cfg := serviceConfig()
		cfg.ServiceVersion = ""
		if err := cfg.Validate(); !errors.Is(err, ErrMissingServiceVersion) {
			t.Errorf("expected ErrMissingServiceVersion, got %v", err)
		}
	})

	t.Run("rejects sample rates outside the unit interval", func(t *testing.T) {
		for _, rate := range []float64{-0.1, 1.5} {
			cfg := serviceConfig()
			cfg.SampleRate = rate
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidSampleRate) {
				t.Errorf("rate %v: expected ErrInvalidSampleRate, got %v", rate, err)
			}
		}
	})
}

func TestInitialize(t *testing.T) {
	shutdown := func(t *testing.T, tel *Telemetry) {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	}

	t.Run("rejects an invalid config", func(t *testing.T) {
		cfg := serviceConfig()
		cfg.ServiceName = ""
		if _, err := Initialize(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("tracing only", func(t *testing.T) {
		cfg := serviceConfig()
		cfg.EnableTracing = true

		tel, err := Initialize(context.Background(), cfg, WithTraceExporter(discardTraceExporter{}))
		if err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		defer shutdown(t, tel)

		if tel.TracerProvider() == nil {
			t.Error("expected a tracer provider")
		}
		if tel.MeterProvider() != nil {
			t.Error("expected no meter provider with metrics disabled")
		}
	})

	t.Run("metrics only", func(t *testing.T) {
		cfg := serviceConfig()
		cfg.EnableMetrics = true

		tel, err := Initialize(context.Background(), cfg, WithMetricExporter(discardMetricExporter{}))
		if err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		defer shutdown(t, tel)

		if tel.MeterProvider() == nil {
			t.Error("expected a meter provider")
		}
		if tel.TracerProvider() != nil {
			t.Error("expected no tracer provider with tracing disabled")
		}
	})

	t.Run("tracing and metrics together", func(t *testing.T) {
		cfg := serviceConfig()
		cfg.EnableTracing = true
		cfg.EnableMetrics = true

		tel, err := Initialize(context.Background(), cfg,
			WithTraceExporter(discardTraceExporter{}),
			WithMetricExporter(discardMetricExporter{}),
		)
		if err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		defer shutdown(t, tel)

		if tel.TracerProvider() == nil || tel.MeterProvider() == nil {
			t.Error("expected both providers")
		}
	})

	t.Run("shutdown of an empty instance is a no-op", func(t *testing.T) {
		tel := &Telemetry{}
		if err := tel.Shutdown(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want sdktrace.Sampler
	}{
		{"zero never samples", 0.0, sdktrace.NeverSample()},
		{"one always samples", 1.0, sdktrace.AlwaysSample()},
		{"above one always samples", 2.0, sdktrace.AlwaysSample()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := createSampler(tt.rate)
			if got.Description() != tt.want.Description() {
				t.Errorf("createSampler(%v) = %s, want %s", tt.rate, got.Description(), tt.want.Description())
			}
		})
	}

	t.Run("fractional rates are parent based", func(t *testing.T) {
		got := createSampler(0.25)
		want := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25))
		if got.Description() != want.Description() {
			t.Errorf("createSampler(0.25) = %s, want %s", got.Description(), want.Description())
		}
	})
}
