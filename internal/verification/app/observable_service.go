package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/telemetry"
	"github.com/mkrasic/handoff/internal/verification/metrics"
)

// ObservableService decorates a VerificationService with spans, structured
// logs and outcome metrics per use case.
type ObservableService struct {
	inner   VerificationService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableService(inner VerificationService, logger *slog.Logger, metrics *metrics.Metrics) *ObservableService {
	return &ObservableService{
		inner:   inner,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableService) VerifyOrder(ctx context.Context, input VerifyOrderInput) (*VerifiedOrder, error) {
	ctx, span := telemetry.StartSpan(ctx, "VerificationService.VerifyOrder")
	defer span.End()

	start := time.Now()
	order, err := o.inner.VerifyOrder(ctx, input)
	o.finish(ctx, "verify_order", start, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.InfoContext(ctx, "order verification refused",
			"order_number", input.OrderNumber, "kind", apperr.Kind(err))
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", order.OrderID),
		attribute.String("order.number", order.OrderNumber),
	)
	telemetry.SetSpanSuccess(span)

	o.logger.InfoContext(ctx, "order verified",
		"order_number", order.OrderNumber, "order_id", order.OrderID)
	return order, nil
}

func (o *ObservableService) VerifyUsername(ctx context.Context, username string) (*VerifiedIdentity, error) {
	ctx, span := telemetry.StartSpan(ctx, "VerificationService.VerifyUsername")
	defer span.End()

	start := time.Now()
	identity, err := o.inner.VerifyUsername(ctx, username)
	o.finish(ctx, "verify_username", start, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.InfoContext(ctx, "username verification refused",
			"username", username, "kind", apperr.Kind(err))
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int64("identity.user_id", identity.UserID),
		attribute.String("identity.username", identity.Username),
	)
	telemetry.SetSpanSuccess(span)

	o.logger.InfoContext(ctx, "username verified",
		"username", identity.Username, "user_id", identity.UserID)
	return identity, nil
}

func (o *ObservableService) RegisterDelivery(ctx context.Context, input RegisterDeliveryInput) (*RegistrationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "VerificationService.RegisterDelivery")
	defer span.End()

	start := time.Now()
	result, err := o.inner.RegisterDelivery(ctx, input)
	o.finish(ctx, "register_delivery", start, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "delivery registration failed",
			"order_number", input.Order.OrderNumber, "kind", apperr.Kind(err))
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("registration.id", result.RegistrationID),
		attribute.Bool("registration.synced", result.Synced),
	)
	telemetry.SetSpanSuccess(span)

	o.logger.InfoContext(ctx, "delivery registered",
		"registration_id", result.RegistrationID, "synced", result.Synced)
	return result, nil
}

func (o *ObservableService) finish(ctx context.Context, action string, start time.Time, err error) {
	o.metrics.RecordVerificationDuration(ctx, action, time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = apperr.Kind(err)
	}
	o.metrics.RecordVerification(ctx, action, outcome)
}
