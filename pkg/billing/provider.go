// Package billing abstracts the payment processor behind a small provider
// interface: hosted checkout session creation, lazily-created customer
// references, and signed lifecycle webhook parsing.
//
// The correlation metadata attached to a checkout session is the only
// linkage between an external subscription and internal entities; the
// provider must round-trip it unchanged.
package billing

import "context"

// Interval is the recurring billing period of a plan.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// ParseInterval validates an interval string from untrusted input.
func ParseInterval(s string) (Interval, bool) {
	switch Interval(s) {
	case IntervalDay, IntervalWeek, IntervalMonth:
		return Interval(s), true
	default:
		return "", false
	}
}

// Metadata is the correlation payload carried through the payment
// processor. All fields are internal entity IDs rendered as strings.
type Metadata struct {
	SubscriberID string
	CapperID     string
	PlanID       string
}

// CheckoutRequest contains everything needed to create a hosted checkout
// session for a recurring plan with a platform fee split.
type CheckoutRequest struct {
	PriceCents          int64
	Currency            string
	Interval            Interval
	ProductName         string
	CustomerID          string // provider customer reference of the subscriber
	DestinationAccount  string // capper's payout account
	ApplicationFeeCents int64  // platform's cut, deducted before payout
	SuccessURL          string
	CancelURL           string
	Metadata            Metadata
}

// CheckoutSession represents a hosted checkout session.
type CheckoutSession struct {
	ID  string // provider's session identifier
	URL string // hosted checkout URL to redirect the subscriber to
}

// CustomerRequest contains data for creating a provider customer record.
type CustomerRequest struct {
	Email        string
	Name         string
	SubscriberID string
}

// EventType is the normalized lifecycle event type. Provider
// implementations map their specific event names onto these.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout_completed"
	EventSubscriptionCreated EventType = "subscription_created"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"

	// EventUnknown marks authentic events outside the recognized set.
	// They are acknowledged as no-ops for forward compatibility.
	EventUnknown EventType = "unknown"
)

// Event is a normalized, authenticity-verified webhook event.
type Event struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	EventID        string // provider's event ID, used for delivery dedup
	SubscriptionID string // provider's subscription ID (reconciliation key)
	Status         string // provider's lifecycle status, empty for checkout events
	Metadata       Metadata
	Raw            map[string]any
}

// Provider is the payment processor as seen by the core.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session. The
	// request's metadata must be attached so that it can be read back
	// verbatim from lifecycle webhooks.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CreateCustomer creates a customer record and returns its reference.
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)

	// ParseWebhook verifies payload authenticity against the shared
	// webhook secret and returns the normalized event. Verification
	// failure means the event never reaches the reconciler.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}
