package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	verificationsTotal   metric.Int64Counter
	verificationDuration metric.Float64Histogram
	sinkWriteDuration    metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.verificationsTotal, err = meter.Int64Counter(
		"verifications_total",
		metric.WithDescription("Total verification requests by action and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create verifications_total counter: %w", err)
	}

	m.verificationDuration, err = meter.Float64Histogram(
		"verification_duration_seconds",
		metric.WithDescription("Duration of verification use cases"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create verification_duration histogram: %w", err)
	}

	m.sinkWriteDuration, err = meter.Float64Histogram(
		"sink_write_duration_seconds",
		metric.WithDescription("Duration of registration sink writes"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sink_write_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordVerification(ctx context.Context, action, outcome string) {
	m.verificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordVerificationDuration(ctx context.Context, action string, durationSeconds float64) {
	m.verificationDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("action", action),
	))
}

func (m *Metrics) RecordSinkWrite(ctx context.Context, sink string, durationSeconds float64) {
	m.sinkWriteDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("sink", sink),
	))
}
