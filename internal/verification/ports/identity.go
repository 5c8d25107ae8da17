package ports

import (
	"context"
	"errors"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

// IdentityGateway exposes the identity-provider lookups the resolver needs.
// Implementations classify transport faults with apperr.ErrRateLimited and
// apperr.ErrUpstreamUnavailable so callers can distinguish retryable failures.
type IdentityGateway interface {
	// LookupByUsername resolves a handle via the provider's exact batch
	// lookup. Returns ErrIdentityNotFound when the provider answers but has
	// no such account.
	LookupByUsername(ctx context.Context, username string) (*domain.Identity, error)

	// SearchByKeyword runs the provider's keyword search and returns the
	// raw result page for the caller to scan.
	SearchByKeyword(ctx context.Context, keyword string) ([]domain.Identity, error)

	// AvatarURL fetches the avatar image URL for a user id. Best effort;
	// resolution never blocks on it.
	AvatarURL(ctx context.Context, userID int64) (string, error)
}

// ErrIdentityNotFound is returned when the provider answered definitively
// that no account matches.
var ErrIdentityNotFound = errors.New("no account matches the handle")
