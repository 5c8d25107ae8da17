package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

// Registrar files a verified order/identity pair into the configured sink
// under a wall-clock budget shorter than the caller's own timeout. A slow
// sink never fails the request: the locally generated tracking id stands in
// and the outcome is reported as unsynced.
type Registrar struct {
	sink   ports.RegistrationSink
	budget time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRegistrar(sink ports.RegistrationSink, budget time.Duration, logger *slog.Logger) *Registrar {
	return &Registrar{sink: sink, budget: budget, logger: logger, now: time.Now}
}

// RegistrationOutcome reports where the record ended up. Synced is false when
// the sink ran out of budget and the record only exists locally.
type RegistrationOutcome struct {
	Record domain.RegistrationRecord
	Synced bool
}

// Register creates the registration record and writes it to the sink.
// Returns apperr.ErrInvalidInput for incomplete snapshots and
// apperr.ErrSinkFailure when the sink rejects the write outright; a sink
// timeout is not an error.
func (g *Registrar) Register(ctx context.Context, order domain.OrderSnapshot, identity domain.IdentitySnapshot) (RegistrationOutcome, error) {
	rec := domain.RegistrationRecord{
		ID:        NewTrackingID(),
		Order:     order,
		Identity:  identity,
		Status:    domain.RegistrationPendingDelivery,
		CreatedAt: g.now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		return RegistrationOutcome{}, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}

	sinkCtx, cancel := context.WithTimeout(ctx, g.budget)
	defer cancel()

	sinkID, err := g.sink.Record(sinkCtx, rec)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.logger.WarnContext(ctx, "sink write exceeded budget, keeping local tracking id",
				"registration_id", rec.ID, "budget", g.budget)
			return RegistrationOutcome{Record: rec, Synced: false}, nil
		}
		return RegistrationOutcome{}, fmt.Errorf("%w: %v", apperr.ErrSinkFailure, err)
	}

	if sinkID != "" {
		rec.ID = sinkID
	}
	return RegistrationOutcome{Record: rec, Synced: true}, nil
}

// NewTrackingID mints the registration tracking identifier.
func NewTrackingID() string {
	return "REG-" + uuid.NewString()
}
