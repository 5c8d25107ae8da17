package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

// Resolver maps a handle to a canonical identity record via the provider's
// exact batch lookup, falling back to keyword search. Avatar enrichment is
// best effort and never blocks resolution.
type Resolver struct {
	identity ports.IdentityGateway
	logger   *slog.Logger
}

func NewResolver(identity ports.IdentityGateway, logger *slog.Logger) *Resolver {
	return &Resolver{identity: identity, logger: logger}
}

// Resolve returns the identity whose canonical handle case-insensitively
// equals the query. The returned Username carries the provider's exact
// casing. Handle format violations fail before any network call.
func (r *Resolver) Resolve(ctx context.Context, handle string) (*domain.Identity, error) {
	if err := domain.ValidateHandle(handle); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}

	found, primaryErr := r.lookupExact(ctx, handle)
	if found == nil {
		var searchErr error
		found, searchErr = r.searchFallback(ctx, handle)
		if found == nil {
			return nil, classifyLookupFailure(primaryErr, searchErr)
		}
	}

	avatar, err := r.identity.AvatarURL(ctx, found.UserID)
	if err != nil || avatar == "" {
		// Never fail resolution over a missing thumbnail.
		r.logger.DebugContext(ctx, "avatar lookup failed, using fallback", "user_id", found.UserID, "error", err)
		avatar = fallbackAvatarURL(found.UserID)
	}
	found.AvatarURL = avatar

	return found, nil
}

func (r *Resolver) lookupExact(ctx context.Context, handle string) (*domain.Identity, error) {
	identity, err := r.identity.LookupByUsername(ctx, handle)
	if err != nil {
		return nil, err
	}
	if identity == nil || !strings.EqualFold(identity.Username, handle) {
		return nil, ports.ErrIdentityNotFound
	}
	return identity, nil
}

func (r *Resolver) searchFallback(ctx context.Context, handle string) (*domain.Identity, error) {
	results, err := r.identity.SearchByKeyword(ctx, handle)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if strings.EqualFold(results[i].Username, handle) {
			return &results[i], nil
		}
	}
	return nil, ports.ErrIdentityNotFound
}

// classifyLookupFailure decides what the combined failure of both lookup
// strategies means. Rate limiting is surfaced as retryable; a genuine
// not-found requires at least one strategy to have answered definitively.
func classifyLookupFailure(primaryErr, searchErr error) error {
	if errors.Is(primaryErr, apperr.ErrRateLimited) || errors.Is(searchErr, apperr.ErrRateLimited) {
		return fmt.Errorf("identity lookup: %w", apperr.ErrRateLimited)
	}

	primaryAnswered := errors.Is(primaryErr, ports.ErrIdentityNotFound)
	searchAnswered := errors.Is(searchErr, ports.ErrIdentityNotFound)
	if primaryAnswered || searchAnswered {
		return fmt.Errorf("identity lookup: %w", apperr.ErrIdentityNotFound)
	}

	return fmt.Errorf("identity lookup failed (%v; %v): %w", primaryErr, searchErr, apperr.ErrUpstreamUnavailable)
}

// fallbackAvatarURL builds the deterministic headshot URL the provider
// serves for any user id, used when the thumbnail API is unavailable.
func fallbackAvatarURL(userID int64) string {
	return fmt.Sprintf("https://www.roblox.com/headshot-thumbnail/image?userId=%d&width=150&height=150&format=png", userID)
}
