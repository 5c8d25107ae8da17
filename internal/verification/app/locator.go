package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

// emailScanLimit bounds the fallback page fetched when no candidate key
// produced an owner match.
const emailScanLimit = 100

// deadlineReserve is how much of the request budget the locator leaves
// untouched so the response can still be written before the platform ceiling.
const deadlineReserve = 500 * time.Millisecond

// Locator resolves a raw order reference plus purchaser email to a
// LocateResult against the commerce gateway. Individual query failures are
// swallowed; only misconfiguration aborts the search.
type Locator struct {
	commerce ports.CommerceGateway
	logger   *slog.Logger
}

func NewLocator(commerce ports.CommerceGateway, logger *slog.Logger) *Locator {
	return &Locator{commerce: commerce, logger: logger}
}

// Locate tries each candidate key in order, short-circuiting on the first
// owner match. A key hit with the wrong owner is remembered and reported only
// if no later candidate or the email scan produces the real match.
func (l *Locator) Locate(ctx context.Context, ref, email string) (domain.LocateResult, error) {
	candidates := CandidateKeys(ref)

	var wrongOwner *domain.Order
	for i, key := range candidates {
		if budgetExhausted(ctx) {
			l.logger.WarnContext(ctx, "request budget exhausted, abandoning remaining candidates",
				"remaining_candidates", len(candidates)-i)
			break
		}

		order, err := l.commerce.FindOrderByKey(ctx, key)
		if err != nil {
			if errors.Is(err, apperr.ErrMisconfigured) {
				return domain.LocateResult{}, fmt.Errorf("find order by key: %w", err)
			}
			// A single failed query is "no result for this candidate".
			l.logger.DebugContext(ctx, "candidate lookup failed", "key", key, "error", err)
			continue
		}
		if order == nil {
			continue
		}

		if order.EmailMatches(email) {
			return domain.LocateResult{Status: domain.LocateMatch, Order: order}, nil
		}
		if wrongOwner == nil {
			wrongOwner = order
		}
	}

	if !budgetExhausted(ctx) {
		if order := l.scanByEmail(ctx, email, candidates); order != nil {
			return domain.LocateResult{Status: domain.LocateMatch, Order: order}, nil
		}
	}

	if wrongOwner != nil {
		return domain.LocateResult{Status: domain.LocateWrongOwner, Order: wrongOwner}, nil
	}
	return domain.LocateResult{Status: domain.LocateNotFound}, nil
}

// scanByEmail fetches the purchaser's orders and looks for one whose display
// key or numeric order number equals any candidate, ignoring marker and
// prefix differences.
func (l *Locator) scanByEmail(ctx context.Context, email string, candidates []string) *domain.Order {
	orders, err := l.commerce.ListOrdersByEmail(ctx, email, emailScanLimit)
	if err != nil {
		l.logger.DebugContext(ctx, "email scan failed", "error", err)
		return nil
	}

	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		normalized = append(normalized, NormalizeKey(c))
	}

	for i := range orders {
		order := &orders[i]
		name := NormalizeKey(order.Name)
		number := strconv.FormatInt(order.Number, 10)
		for _, cand := range normalized {
			if cand == name || cand == number {
				return order
			}
		}
	}
	return nil
}

func budgetExhausted(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	deadline, ok := ctx.Deadline()
	return ok && time.Until(deadline) < deadlineReserve
}
