package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription links a subscriber to a capper's plan through the payment
// provider's subscription object.
type Subscription struct {
	ID           uuid.UUID
	ExternalID   string // provider's subscription ID, unique, the idempotency key
	SubscriberID uuid.UUID
	CapperID     uuid.UUID
	PlanID       *uuid.UUID // nil when metadata was incomplete at creation
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
