package ports

import (
	"context"
	"errors"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

// CommerceGateway exposes the order-store queries the locator needs. Both
// queries are read-only against the external commerce system.
type CommerceGateway interface {
	// FindOrderByKey fetches the single best order whose display key equals
	// the candidate. Returns ErrOrderNotFound when no order matches.
	FindOrderByKey(ctx context.Context, key string) (*domain.Order, error)

	// ListOrdersByEmail fetches up to limit orders purchased under the email.
	ListOrdersByEmail(ctx context.Context, email string, limit int) ([]domain.Order, error)
}

// ErrOrderNotFound is returned when a query completes but matches nothing.
// Distinct from transport failures so the locator can tell "no hit" apart
// from "no answer".
var ErrOrderNotFound = errors.New("no order matches the query")
