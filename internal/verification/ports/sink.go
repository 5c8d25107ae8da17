package ports

import (
	"context"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

// RegistrationSink persists a completed verification pair. Implementations
// are interchangeable (database table, low-code table store, webhook) and
// selected by configuration.
//
// Record returns the identifier the sink filed the record under. Sinks that
// do not assign their own identifiers return the record's tracking id
// unchanged. Implementations must respect ctx cancellation: the registrar
// imposes a budget shorter than the caller's own timeout.
type RegistrationSink interface {
	Record(ctx context.Context, rec domain.RegistrationRecord) (string, error)
}
