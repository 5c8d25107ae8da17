package domain

import "fmt"

// IneligibleReason is the closed set of reasons an order can be refused
// for delivery.
type IneligibleReason string

const (
	ReasonPaymentNotConfirmed IneligibleReason = "payment-not-confirmed"
	ReasonCancelled           IneligibleReason = "cancelled"
	ReasonAlreadyFulfilled    IneligibleReason = "already-fulfilled"
	ReasonRefunded            IneligibleReason = "refunded"
)

// EligibilityDecision is the go/no-go outcome of the eligibility rules.
type EligibilityDecision struct {
	Eligible bool
	Reason   IneligibleReason
	Detail   string
}

func ineligible(reason IneligibleReason, detail string) EligibilityDecision {
	return EligibilityDecision{Reason: reason, Detail: detail}
}

// CheckEligibility applies the delivery business rules to an order. It is a
// pure function: same order in, same decision out. Rules are evaluated in a
// fixed order and the first failing rule wins.
//
// A refunded payment status passes the payment-confirmation rule on purpose:
// a refunded order was paid at some point, and the refund rules further down
// report the more specific reason.
func CheckEligibility(o Order) EligibilityDecision {
	switch o.PaymentStatus {
	case PaymentPaid, PaymentPartiallyPaid, PaymentRefunded, PaymentPartiallyRefunded:
	default:
		return ineligible(ReasonPaymentNotConfirmed,
			fmt.Sprintf("payment is not confirmed (status %q)", o.PaymentStatus))
	}

	if o.CancelledAt != nil {
		return ineligible(ReasonCancelled,
			fmt.Sprintf("order was cancelled on %s", o.CancelledAt.Format("2006-01-02")))
	}

	if o.FulfillmentStatus == FulfillmentFulfilled {
		return ineligible(ReasonAlreadyFulfilled, "order has already been fulfilled")
	}

	if o.PaymentStatus == PaymentRefunded || o.PaymentStatus == PaymentPartiallyRefunded {
		return ineligible(ReasonRefunded,
			fmt.Sprintf("payment was refunded (status %q)", o.PaymentStatus))
	}

	// The status field can lag behind the refund records, so the amount-based
	// check wins even when the status still says paid.
	if len(o.Refunds) > 0 && o.RefundedCents() >= o.TotalCents {
		return ineligible(ReasonRefunded,
			fmt.Sprintf("refunds total %s of %s, order is fully refunded",
				FormatCents(o.RefundedCents()), FormatCents(o.TotalCents)))
	}

	return EligibilityDecision{Eligible: true}
}
