// Package apperr defines the error taxonomy shared by the verification use
// cases and the HTTP layer. Components return these sentinels (wrapped with
// context) and the handler maps them onto status codes without inspecting
// message text.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput marks malformed caller input: bad email, bad handle,
	// missing required fields. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOrderNotFound means no candidate key and no email scan located an order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrWrongOwner means an order matched a candidate key but belongs to a
	// different purchaser email. Distinct from absence on purpose.
	ErrWrongOwner = errors.New("order email does not match")

	// ErrIneligible marks a located, owner-matched order that fails the
	// delivery eligibility rules. Use IneligibleError to carry the reason.
	ErrIneligible = errors.New("order not eligible for delivery")

	// ErrIdentityNotFound means the identity provider answered but had no
	// account with the requested handle.
	ErrIdentityNotFound = errors.New("user not found")

	// ErrRateLimited means an upstream throttled us; the caller may retry.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable means every lookup strategy failed on transport
	// or server errors, so no definite answer exists.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrMisconfigured marks missing credentials or an unusable upstream
	// configuration. Fatal for the request; details never reach the caller.
	ErrMisconfigured = errors.New("service misconfigured")

	// ErrSinkFailure means the registration sink rejected the write outright.
	ErrSinkFailure = errors.New("registration sink failure")
)

// IneligibleError carries the specific refusal reason and human detail for an
// order that failed the eligibility rules. It unwraps to ErrIneligible.
type IneligibleError struct {
	Reason string
	Detail string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("order not eligible: %s (%s)", e.Reason, e.Detail)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// Kind reduces an error to a stable machine-readable label for logs, metrics
// and response bodies.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"

	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"

	case errors.Is(err, ErrWrongOwner):
		return "wrong_owner"

	case errors.Is(err, ErrIneligible):
		return "ineligible"

	case errors.Is(err, ErrIdentityNotFound):
		return "user_not_found"

	case errors.Is(err, ErrRateLimited):
		return "rate_limited"

	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"

	case errors.Is(err, ErrMisconfigured):
		return "misconfigured"

	case errors.Is(err, ErrSinkFailure):
		return "sink_failure"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

// HTTPStatus maps an error onto the response status the endpoint contract
// prescribes for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrWrongOwner),
		errors.Is(err, ErrIneligible):
		return http.StatusBadRequest

	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrIdentityNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
