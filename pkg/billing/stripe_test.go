package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capperstack/capperstack/pkg/billing"
)

const webhookSecret = "whsec_unit"

func newTestProvider(t *testing.T, handler http.Handler) *billing.StripeProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider, err := billing.NewStripeProvider(billing.StripeConfig{
		SecretKey:       "sk_test_123",
		WebhookSecret:   webhookSecret,
		APIBaseURL:      srv.URL,
		SignatureMaxAge: 5 * time.Minute,
	})
	require.NoError(t, err)
	return provider
}

func TestStripeProvider_CreateCheckoutSession(t *testing.T) {
	t.Parallel()

	t.Run("builds session with fee split and metadata", func(t *testing.T) {
		t.Parallel()

		var form url.Values
		provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
			require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id":  "cs_test_1",
				"url": "https://checkout.example.com/cs_test_1",
			})
		}))

		session, err := provider.CreateCheckoutSession(context.Background(), billing.CheckoutRequest{
			PriceCents:          2500,
			Interval:            billing.IntervalMonth,
			ProductName:         "Sharp Eddie · Premium",
			CustomerID:          "cus_123",
			DestinationAccount:  "acct_456",
			ApplicationFeeCents: 625,
			SuccessURL:          "https://app.example.com/dashboard?checkout=success",
			CancelURL:           "https://app.example.com/cappers/abc?checkout=cancel",
			Metadata: billing.Metadata{
				SubscriberID: "u1",
				CapperID:     "c1",
				PlanID:       "pl1",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", session.ID)
		assert.Equal(t, "https://checkout.example.com/cs_test_1", session.URL)

		assert.Equal(t, "subscription", form.Get("mode"))
		assert.Equal(t, "cus_123", form.Get("customer"))
		assert.Equal(t, "2500", form.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "month", form.Get("line_items[0][price_data][recurring][interval]"))
		assert.Equal(t, "625", form.Get("payment_intent_data[application_fee_amount]"))
		assert.Equal(t, "acct_456", form.Get("payment_intent_data[transfer_data][destination]"))

		// Correlation metadata must be present on both the session and the
		// subscription it will create.
		for _, scope := range []string{"metadata", "subscription_data[metadata]"} {
			assert.Equal(t, "u1", form.Get(scope+"[subscriber_id]"))
			assert.Equal(t, "c1", form.Get(scope+"[capper_id]"))
			assert.Equal(t, "pl1", form.Get(scope+"[plan_id]"))
		}
	})

	t.Run("surfaces provider error message", func(t *testing.T) {
		t.Parallel()

		provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "Your card was declined."},
			})
		}))

		_, err := provider.CreateCheckoutSession(context.Background(), validCheckoutRequest())
		require.ErrorIs(t, err, billing.ErrProviderRequestFailed)
		assert.Contains(t, err.Error(), "Your card was declined.")
	})

	t.Run("validates preconditions locally", func(t *testing.T) {
		t.Parallel()

		provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		}))

		req := validCheckoutRequest()
		req.CustomerID = ""
		_, err := provider.CreateCheckoutSession(context.Background(), req)
		assert.ErrorIs(t, err, billing.ErrMissingCustomer)

		req = validCheckoutRequest()
		req.DestinationAccount = ""
		_, err = provider.CreateCheckoutSession(context.Background(), req)
		assert.ErrorIs(t, err, billing.ErrMissingDestination)

		req = validCheckoutRequest()
		req.PriceCents = 0
		_, err = provider.CreateCheckoutSession(context.Background(), req)
		assert.ErrorIs(t, err, billing.ErrMissingPrice)
	})
}

func TestStripeProvider_CreateCustomer(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/customers", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "bettor@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "u1", r.PostForm.Get("metadata[subscriber_id]"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "cus_new"})
	}))

	id, err := provider.CreateCustomer(context.Background(), billing.CustomerRequest{
		Email:        "bettor@example.com",
		SubscriberID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_new", id)
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t, http.NewServeMux())

	sign := func(payload []byte) string {
		return billing.SignPayload(webhookSecret, payload, time.Now())
	}

	t.Run("checkout session completed", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"id": "evt_1",
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_1",
				"subscription": "sub_abc",
				"metadata": {"subscriber_id": "u1", "capper_id": "c1", "plan_id": "pl1"}
			}}
		}`)

		event, err := provider.ParseWebhook(context.Background(), payload, sign(payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventCheckoutCompleted, event.Type)
		assert.Equal(t, "evt_1", event.EventID)
		assert.Equal(t, "sub_abc", event.SubscriptionID)
		assert.Empty(t, event.Status)
		assert.Equal(t, billing.Metadata{SubscriberID: "u1", CapperID: "c1", PlanID: "pl1"}, event.Metadata)
	})

	t.Run("subscription lifecycle event", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"id": "evt_2",
			"type": "customer.subscription.updated",
			"data": {"object": {
				"id": "sub_abc",
				"status": "canceled",
				"metadata": {"subscriber_id": "u1", "capper_id": "c1", "plan_id": "pl1"}
			}}
		}`)

		event, err := provider.ParseWebhook(context.Background(), payload, sign(payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionUpdated, event.Type)
		assert.Equal(t, "sub_abc", event.SubscriptionID)
		assert.Equal(t, "canceled", event.Status)
	})

	t.Run("subscription deletion maps to its own event type", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"id": "evt_del",
			"type": "customer.subscription.deleted",
			"data": {"object": {"id": "sub_abc", "status": "canceled", "metadata": {}}}
		}`)

		event, err := provider.ParseWebhook(context.Background(), payload, sign(payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionDeleted, event.Type)
	})

	t.Run("unknown event type normalizes to EventUnknown", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{"id": "evt_3", "type": "invoice.payment_succeeded", "data": {"object": {}}}`)

		event, err := provider.ParseWebhook(context.Background(), payload, sign(payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventUnknown, event.Type)
		assert.Equal(t, "invoice.payment_succeeded", event.ProviderEvent)
	})

	t.Run("bad signature never parses", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{"id": "evt_4", "type": "customer.subscription.created", "data": {"object": {}}}`)
		_, err := provider.ParseWebhook(context.Background(), payload,
			billing.SignPayload("wrong-secret", payload, time.Now()))
		assert.ErrorIs(t, err, billing.ErrSignatureInvalid)
	})

	t.Run("malformed payload after valid signature", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{not json`)
		_, err := provider.ParseWebhook(context.Background(), payload, sign(payload))
		assert.ErrorIs(t, err, billing.ErrMalformedPayload)
	})
}

func validCheckoutRequest() billing.CheckoutRequest {
	return billing.CheckoutRequest{
		PriceCents:          1000,
		Interval:            billing.IntervalMonth,
		ProductName:         "Plan",
		CustomerID:          "cus_1",
		DestinationAccount:  "acct_1",
		ApplicationFeeCents: 250,
		SuccessURL:          "https://example.com/ok",
		CancelURL:           "https://example.com/cancel",
	}
}
