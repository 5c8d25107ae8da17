package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mkrasic/handoff/internal/telemetry"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/metrics"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

// ObservableSink wraps any registration sink with a span and a write-latency
// metric, so sink slowness shows up before it burns the request budget.
type ObservableSink struct {
	sink    ports.RegistrationSink
	name    string
	metrics *metrics.Metrics
}

func NewObservableSink(sink ports.RegistrationSink, name string, metrics *metrics.Metrics) *ObservableSink {
	return &ObservableSink{
		sink:    sink,
		name:    name,
		metrics: metrics,
	}
}

func (s *ObservableSink) Record(ctx context.Context, rec domain.RegistrationRecord) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "RegistrationSink.Record")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("sink", s.name),
		attribute.String("registration.id", rec.ID),
	)

	start := time.Now()
	id, err := s.sink.Record(ctx, rec)
	duration := time.Since(start).Seconds()

	s.metrics.RecordSinkWrite(ctx, s.name, duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return "", err
	}

	telemetry.SetSpanSuccess(span)
	return id, nil
}
