package subscription

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/capperstack/capperstack/pkg/billing"
)

// Reconciler applies authenticity-verified provider notifications to the
// store. It is a state reducer keyed by the external subscription ID: the
// observable final state is some valid result of applying all received
// notifications in some order, with last-applied-wins for the active flag.
type Reconciler struct {
	store Store
	log   *slog.Logger
}

// NewReconciler creates a Reconciler. Panics on nil dependencies to fail
// fast during initialization.
func NewReconciler(store Store, log *slog.Logger) *Reconciler {
	if store == nil {
		panic("subscription: Store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log}
}

// Apply processes one lifecycle notification. It is safe to invoke any
// number of times with the same event. A nil return means the event was
// handled — including the discard and no-op cases, which the provider must
// see acknowledged so it stops redelivering.
func (r *Reconciler) Apply(ctx context.Context, event *billing.Event) error {
	var active bool
	switch event.Type {
	case billing.EventCheckoutCompleted:
		// Checkout completion carries no lifecycle status; reaching it at
		// all means the subscription started.
		active = true
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		active = event.Status == "active" || event.Status == "trialing"
	case billing.EventSubscriptionDeleted:
		// Deletion ends the subscription no matter what status it reports.
		active = false
	default:
		r.log.DebugContext(ctx, "ignoring unrecognized billing event",
			"provider_event", event.ProviderEvent, "event_id", event.EventID)
		return nil
	}

	if event.SubscriptionID == "" {
		r.log.WarnContext(ctx, "discarding notification without subscription id",
			"provider_event", event.ProviderEvent, "event_id", event.EventID)
		return nil
	}

	subscriberID, err := uuid.Parse(event.Metadata.SubscriberID)
	if err != nil {
		r.log.WarnContext(ctx, "discarding notification without subscriber linkage",
			"external_id", event.SubscriptionID, "event_id", event.EventID)
		return nil
	}
	capperID, err := uuid.Parse(event.Metadata.CapperID)
	if err != nil {
		r.log.WarnContext(ctx, "discarding notification without capper linkage",
			"external_id", event.SubscriptionID, "event_id", event.EventID)
		return nil
	}

	// Plan linkage is best-effort: absent or malformed plan metadata still
	// activates the subscription, it just leaves the plan unset.
	var planID *uuid.UUID
	if id, err := uuid.Parse(event.Metadata.PlanID); err == nil {
		planID = &id
	}

	row, err := r.store.UpsertByExternalID(ctx, UpsertParams{
		ExternalID:   event.SubscriptionID,
		SubscriberID: subscriberID,
		CapperID:     capperID,
		PlanID:       planID,
		Active:       active,
	})
	if err != nil {
		return err
	}

	// The store never rewrites linkage on merge; a mismatch here means the
	// provider sent metadata claiming a different owner for an existing
	// subscription. Protocol anomaly: keep stored linkage, make noise.
	if row.SubscriberID != subscriberID || row.CapperID != capperID {
		r.log.ErrorContext(ctx, "notification metadata contradicts stored subscription linkage",
			"external_id", event.SubscriptionID,
			"stored_subscriber", row.SubscriberID, "claimed_subscriber", subscriberID,
			"stored_capper", row.CapperID, "claimed_capper", capperID)
	}

	r.log.InfoContext(ctx, "subscription reconciled",
		"external_id", event.SubscriptionID, "active", row.Active,
		"provider_event", event.ProviderEvent)
	return nil
}
