package subscription

import (
	"context"

	"github.com/google/uuid"
)

// UpsertParams describes one reconciled notification applied to the store.
type UpsertParams struct {
	ExternalID   string
	SubscriberID uuid.UUID
	CapperID     uuid.UUID
	PlanID       *uuid.UUID
	Active       bool
}

// Store persists subscriptions keyed by the provider's external ID.
//
// UpsertByExternalID must be atomic insert-if-absent-else-merge: concurrent
// first deliveries of the same external ID may never produce two rows. The
// merge updates only Active and PlanID (latest non-nil wins); subscriber
// and capper columns are written on insert and never touched again, which
// is what makes linkage immutable regardless of what later notifications
// claim. The stored row after the operation is returned either way.
type Store interface {
	UpsertByExternalID(ctx context.Context, params UpsertParams) (*Subscription, error)

	// GetByExternalID returns the row for a provider subscription ID.
	// Returns ErrSubscriptionNotFound if none exists.
	GetByExternalID(ctx context.Context, externalID string) (*Subscription, error)

	// FindActive returns the most-recent-by-creation active subscription
	// for a (subscriber, capper) pair, or ErrSubscriptionNotFound.
	FindActive(ctx context.Context, subscriberID, capperID uuid.UUID) (*Subscription, error)
}
