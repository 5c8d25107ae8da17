package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus mirrors the payment state reported by the commerce backend.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentPartiallyPaid     PaymentStatus = "partially_paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// FulfillmentStatus mirrors the fulfillment state reported by the commerce backend.
type FulfillmentStatus string

const (
	FulfillmentNone      FulfillmentStatus = ""
	FulfillmentPartial   FulfillmentStatus = "partial"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
)

// LineItem is one purchased position on an order.
type LineItem struct {
	Title    string `json:"title"`
	Variant  string `json:"variant,omitempty"`
	Quantity int    `json:"quantity"`
}

// Refund is a processed refund against an order. Amounts are kept in cents
// so that summation and comparison against the order total stay exact.
type Refund struct {
	AmountCents int64
}

// Order is a read-only snapshot of an order owned by the external commerce
// system. This service never mutates orders; it only classifies them.
type Order struct {
	ID                int64
	Name              string // display key, e.g. "#1222"
	Number            int64  // numeric order number
	Email             string
	CustomerName      string
	TotalCents        int64
	Currency          string
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	CancelledAt       *time.Time
	Refunds           []Refund
	LineItems         []LineItem
	CreatedAt         time.Time
}

// EmailMatches reports whether the purchaser email equals the supplied one,
// ignoring case and surrounding whitespace.
func (o Order) EmailMatches(email string) bool {
	return strings.EqualFold(strings.TrimSpace(o.Email), strings.TrimSpace(email))
}

// RefundedCents sums all refund amounts recorded against the order.
func (o Order) RefundedCents() int64 {
	var sum int64
	for _, r := range o.Refunds {
		sum += r.AmountCents
	}
	return sum
}

// LocateStatus classifies the outcome of an order lookup.
type LocateStatus string

const (
	// LocateNotFound means no candidate key or email scan produced an order.
	LocateNotFound LocateStatus = "not_found"
	// LocateWrongOwner means an order matched a candidate key but its
	// purchaser email differs from the caller's.
	LocateWrongOwner LocateStatus = "wrong_owner"
	// LocateMatch means an order matched both a candidate key and the
	// caller's email.
	LocateMatch LocateStatus = "match"
)

// LocateResult carries the located order, if any, together with the match
// quality. Order is nil exactly when Status is LocateNotFound.
type LocateResult struct {
	Status LocateStatus
	Order  *Order
}

// ParseAmountCents converts a decimal money string such as "100.00" into
// cents. Commerce APIs ship money as strings; converting once at the adapter
// boundary keeps the rest of the code free of float comparisons.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	var cents int64
	for _, c := range whole {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		cents = cents*10 + int64(c-'0')
	}
	cents *= 100
	switch len(frac) {
	case 0:
	case 1:
		if frac[0] < '0' || frac[0] > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		cents += int64(frac[0]-'0') * 10
	default:
		for _, c := range frac[:2] {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("invalid amount %q", s)
			}
		}
		cents += int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatCents renders cents back into the "123.45" form used on the wire.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
