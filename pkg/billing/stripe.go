package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey       string        `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret   string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	APIBaseURL      string        `env:"STRIPE_API_BASE_URL" envDefault:"https://api.stripe.com"`
	SignatureMaxAge time.Duration `env:"STRIPE_SIGNATURE_MAX_AGE" envDefault:"5m"`
}

// StripeProvider implements Provider against the Stripe REST API.
// Requests are form-encoded as the API expects; responses are JSON.
type StripeProvider struct {
	config StripeConfig
	client *http.Client
}

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.stripe.com"
	}
	if cfg.SignatureMaxAge <= 0 {
		cfg.SignatureMaxAge = 5 * time.Minute
	}

	p := &StripeProvider{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) StripeOption {
	return func(p *StripeProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// CreateCheckoutSession creates a hosted subscription checkout session.
// The correlation metadata is attached both to the session and to the
// subscription it will create, so every later lifecycle webhook carries it.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceCents <= 0 {
		return nil, ErrMissingPrice
	}
	if req.CustomerID == "" {
		return nil, ErrMissingCustomer
	}
	if req.DestinationAccount == "" {
		return nil, ErrMissingDestination
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("customer", req.CustomerID)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.PriceCents, 10))
	form.Set("line_items[0][price_data][recurring][interval]", string(req.Interval))
	form.Set("line_items[0][price_data][product_data][name]", req.ProductName)
	form.Set("payment_intent_data[application_fee_amount]", strconv.FormatInt(req.ApplicationFeeCents, 10))
	form.Set("payment_intent_data[transfer_data][destination]", req.DestinationAccount)

	// Metadata on both the session and the subscription object: the session
	// copy serves checkout.session.completed, the subscription copy every
	// customer.subscription.* event after it.
	for key, value := range metadataFields(req.Metadata) {
		form.Set("metadata["+key+"]", value)
		form.Set("subscription_data[metadata]["+key+"]", value)
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := p.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// CreateCustomer creates a customer record for a subscriber.
func (p *StripeProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	form := url.Values{}
	if req.Email != "" {
		form.Set("email", req.Email)
	}
	if req.Name != "" {
		form.Set("name", req.Name)
	}
	if req.SubscriberID != "" {
		form.Set("metadata[subscriber_id]", req.SubscriberID)
	}

	var customer struct {
		ID string `json:"id"`
	}
	if err := p.post(ctx, "/v1/customers", form, &customer); err != nil {
		return "", err
	}
	if customer.ID == "" {
		return "", fmt.Errorf("%w: empty customer id", ErrProviderRequestFailed)
	}
	return customer.ID, nil
}

// ParseWebhook verifies the signature header and normalizes the event.
// Event types outside the recognized set come back as EventUnknown so the
// caller can acknowledge them without acting.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	if err := VerifySignature(p.config.WebhookSecret, payload, signature, p.config.SignatureMaxAge); err != nil {
		return nil, err
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object map[string]any `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}

	event := &Event{
		Type:          mapStripeEventType(envelope.Type),
		ProviderEvent: envelope.Type,
		EventID:       envelope.ID,
		Raw:           envelope.Data.Object,
	}

	object := envelope.Data.Object
	switch {
	case strings.HasPrefix(envelope.Type, "checkout.session."):
		// The session references the subscription it created; the session
		// itself carries no lifecycle status.
		if subID, ok := object["subscription"].(string); ok {
			event.SubscriptionID = subID
		}
		event.Metadata = extractMetadata(object)

	case strings.HasPrefix(envelope.Type, "customer.subscription."):
		if id, ok := object["id"].(string); ok {
			event.SubscriptionID = id
		}
		if status, ok := object["status"].(string); ok {
			event.Status = status
		}
		event.Metadata = extractMetadata(object)
	}

	return event, nil
}

// post sends a form-encoded request to the Stripe API and decodes the JSON
// response into out.
func (p *StripeProvider) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Join(ErrProviderRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Join(ErrProviderRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Join(ErrProviderRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s (status %d)", ErrProviderRequestFailed, apiErr.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrProviderRequestFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Join(ErrProviderRequestFailed, err)
	}
	return nil
}

func mapStripeEventType(providerEvent string) EventType {
	switch providerEvent {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	default:
		return EventUnknown
	}
}

func metadataFields(m Metadata) map[string]string {
	return map[string]string{
		"subscriber_id": m.SubscriberID,
		"capper_id":     m.CapperID,
		"plan_id":       m.PlanID,
	}
}

func extractMetadata(object map[string]any) Metadata {
	raw, ok := object["metadata"].(map[string]any)
	if !ok {
		return Metadata{}
	}
	var m Metadata
	if v, ok := raw["subscriber_id"].(string); ok {
		m.SubscriberID = v
	}
	if v, ok := raw["capper_id"].(string); ok {
		m.CapperID = v
	}
	if v, ok := raw["plan_id"].(string); ok {
		m.PlanID = v
	}
	return m
}
