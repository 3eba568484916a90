package billing

import "errors"

var (
	ErrMissingAPIKey            = errors.New("billing: provider API key is required")
	ErrMissingWebhookSecret     = errors.New("billing: webhook secret is required")
	ErrMissingPrice             = errors.New("billing: price is required")
	ErrMissingCustomer          = errors.New("billing: customer reference is required")
	ErrMissingDestination       = errors.New("billing: payout destination is required")
	ErrNoCheckoutURL            = errors.New("billing: no checkout URL returned from provider")
	ErrProviderRequestFailed    = errors.New("billing: provider request failed")
	ErrSignatureInvalid         = errors.New("billing: webhook signature verification failed")
	ErrSignatureHeaderMalformed = errors.New("billing: malformed signature header")
	ErrSignatureExpired         = errors.New("billing: signature timestamp outside tolerance")
	ErrMalformedPayload         = errors.New("billing: malformed webhook payload")
)
