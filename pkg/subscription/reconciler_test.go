package subscription_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/subscription"
)

func lifecycleEvent(eventType billing.EventType, externalID, status string, subscriberID, capperID uuid.UUID, planID *uuid.UUID) *billing.Event {
	event := &billing.Event{
		Type:           eventType,
		ProviderEvent:  string(eventType),
		EventID:        "evt_" + uuid.NewString(),
		SubscriptionID: externalID,
		Status:         status,
		Metadata: billing.Metadata{
			SubscriberID: subscriberID.String(),
			CapperID:     capperID.String(),
		},
	}
	if planID != nil {
		event.Metadata.PlanID = planID.String()
	}
	return event
}

func TestReconcilerApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("checkout completion activates without a status", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()
		planID := uuid.New()

		event := lifecycleEvent(billing.EventCheckoutCompleted, "sub_checkout", "", subscriberID, capperID, &planID)
		require.NoError(t, reconciler.Apply(ctx, event))

		row, err := store.GetByExternalID(ctx, "sub_checkout")
		require.NoError(t, err)
		assert.True(t, row.Active)
		assert.Equal(t, subscriberID, row.SubscriberID)
		assert.Equal(t, capperID, row.CapperID)
		require.NotNil(t, row.PlanID)
		assert.Equal(t, planID, *row.PlanID)
	})

	t.Run("redelivery of the same event is a no-op", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()

		event := lifecycleEvent(billing.EventSubscriptionCreated, "sub_dup", "active", subscriberID, capperID, nil)
		require.NoError(t, reconciler.Apply(ctx, event))
		first, err := store.GetByExternalID(ctx, "sub_dup")
		require.NoError(t, err)

		require.NoError(t, reconciler.Apply(ctx, event))
		second, err := store.GetByExternalID(ctx, "sub_dup")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID, "redelivery must not create a second row")
		assert.True(t, second.Active)
	})

	t.Run("status transitions are last-applied-wins", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()

		created := lifecycleEvent(billing.EventSubscriptionCreated, "sub_order", "active", subscriberID, capperID, nil)
		canceled := lifecycleEvent(billing.EventSubscriptionUpdated, "sub_order", "canceled", subscriberID, capperID, nil)

		require.NoError(t, reconciler.Apply(ctx, created))
		require.NoError(t, reconciler.Apply(ctx, canceled))
		row, err := store.GetByExternalID(ctx, "sub_order")
		require.NoError(t, err)
		assert.False(t, row.Active)

		// Out-of-order redelivery of the earlier event reactivates; the
		// reducer applies whatever arrives last.
		require.NoError(t, reconciler.Apply(ctx, created))
		row, err = store.GetByExternalID(ctx, "sub_order")
		require.NoError(t, err)
		assert.True(t, row.Active)
	})

	t.Run("trialing counts as active", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)

		event := lifecycleEvent(billing.EventSubscriptionCreated, "sub_trial", "trialing", uuid.New(), uuid.New(), nil)
		require.NoError(t, reconciler.Apply(ctx, event))

		row, err := store.GetByExternalID(ctx, "sub_trial")
		require.NoError(t, err)
		assert.True(t, row.Active)
	})

	t.Run("deletion always deactivates", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()

		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionCreated, "sub_del", "active", subscriberID, capperID, nil)))
		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionDeleted, "sub_del", "canceled", subscriberID, capperID, nil)))

		row, err := store.GetByExternalID(ctx, "sub_del")
		require.NoError(t, err)
		assert.False(t, row.Active)
	})

	t.Run("past_due deactivates", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()

		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionCreated, "sub_due", "active", subscriberID, capperID, nil)))
		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionUpdated, "sub_due", "past_due", subscriberID, capperID, nil)))

		row, err := store.GetByExternalID(ctx, "sub_due")
		require.NoError(t, err)
		assert.False(t, row.Active)
	})

	t.Run("later linkage claims never rewrite the stored row", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()

		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionCreated, "sub_immutable", "active", subscriberID, capperID, nil)))

		intruder := lifecycleEvent(billing.EventSubscriptionUpdated, "sub_immutable", "active", uuid.New(), uuid.New(), nil)
		require.NoError(t, reconciler.Apply(ctx, intruder))

		row, err := store.GetByExternalID(ctx, "sub_immutable")
		require.NoError(t, err)
		assert.Equal(t, subscriberID, row.SubscriberID)
		assert.Equal(t, capperID, row.CapperID)
	})

	t.Run("missing subscriber linkage is discarded without a row", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)

		event := lifecycleEvent(billing.EventSubscriptionCreated, "sub_orphan", "active", uuid.New(), uuid.New(), nil)
		event.Metadata.SubscriberID = ""
		require.NoError(t, reconciler.Apply(ctx, event))

		_, err := store.GetByExternalID(ctx, "sub_orphan")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("missing subscription id is acknowledged without a row", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)

		event := lifecycleEvent(billing.EventCheckoutCompleted, "", "", uuid.New(), uuid.New(), nil)
		require.NoError(t, reconciler.Apply(ctx, event))
	})

	t.Run("unrecognized event types are ignored", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)

		event := lifecycleEvent(billing.EventUnknown, "sub_unknown", "active", uuid.New(), uuid.New(), nil)
		require.NoError(t, reconciler.Apply(ctx, event))

		_, err := store.GetByExternalID(ctx, "sub_unknown")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("plan linkage keeps the latest non-empty value", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()
		planID := uuid.New()

		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionCreated, "sub_plan", "active", subscriberID, capperID, &planID)))
		require.NoError(t, reconciler.Apply(ctx,
			lifecycleEvent(billing.EventSubscriptionUpdated, "sub_plan", "canceled", subscriberID, capperID, nil)))

		row, err := store.GetByExternalID(ctx, "sub_plan")
		require.NoError(t, err)
		require.NotNil(t, row.PlanID, "plan linkage must survive events that omit it")
		assert.Equal(t, planID, *row.PlanID)
	})

	t.Run("concurrent first deliveries converge on one row", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := subscription.NewReconciler(store, nil)
		subscriberID, capperID := uuid.New(), uuid.New()

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				event := lifecycleEvent(billing.EventSubscriptionCreated, "sub_race", "active", subscriberID, capperID, nil)
				assert.NoError(t, reconciler.Apply(ctx, event))
			}()
		}
		wg.Wait()

		row, err := store.GetByExternalID(ctx, "sub_race")
		require.NoError(t, err)
		assert.True(t, row.Active)
		assert.Equal(t, subscriberID, row.SubscriberID)
	})
}

func TestMemoryStoreFindActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	subscriberID, capperID := uuid.New(), uuid.New()

	_, err := store.FindActive(ctx, subscriberID, capperID)
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

	_, err = store.UpsertByExternalID(ctx, subscription.UpsertParams{
		ExternalID: "sub_a", SubscriberID: subscriberID, CapperID: capperID, Active: true,
	})
	require.NoError(t, err)

	row, err := store.FindActive(ctx, subscriberID, capperID)
	require.NoError(t, err)
	assert.Equal(t, "sub_a", row.ExternalID)

	// Deactivation hides the row from FindActive again.
	_, err = store.UpsertByExternalID(ctx, subscription.UpsertParams{
		ExternalID: "sub_a", SubscriberID: subscriberID, CapperID: capperID, Active: false,
	})
	require.NoError(t, err)

	_, err = store.FindActive(ctx, subscriberID, capperID)
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

	// A different capper's active subscription never matches.
	_, err = store.UpsertByExternalID(ctx, subscription.UpsertParams{
		ExternalID: "sub_b", SubscriberID: subscriberID, CapperID: uuid.New(), Active: true,
	})
	require.NoError(t, err)

	_, err = store.FindActive(ctx, subscriberID, capperID)
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

	_, err = store.UpsertByExternalID(ctx, subscription.UpsertParams{
		ExternalID: "", SubscriberID: subscriberID, CapperID: capperID, Active: true,
	})
	assert.ErrorIs(t, err, subscription.ErrMissingExternalID)
}
