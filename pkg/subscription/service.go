package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/fees"
	"github.com/capperstack/capperstack/pkg/idempotency"
)

// CheckoutPlan is the read model the checkout flow needs: the plan joined
// with its capper's payout and verification state.
type CheckoutPlan struct {
	ID             uuid.UUID
	Name           string
	PriceCents     int64
	Interval       billing.Interval
	CapperID       uuid.UUID
	CapperName     string
	CapperVerified bool
	PayoutAccount  string // empty until the capper completes payouts setup
}

// PlanSource resolves a plan for checkout. Returns ErrPlanNotFound when the
// plan ID does not resolve.
type PlanSource interface {
	CheckoutPlan(ctx context.Context, planID uuid.UUID) (*CheckoutPlan, error)
}

// CustomerSource returns the subscriber's payment-customer reference,
// creating and persisting one on first use. Must be idempotent: an
// existing reference is reused, never duplicated.
type CustomerSource interface {
	EnsureCustomer(ctx context.Context, subscriberID uuid.UUID) (string, error)
}

// SettingsSource fetches the platform fee settings. A (nil, nil) return
// means no settings row exists yet and defaults apply.
type SettingsSource interface {
	FeeSettings(ctx context.Context) (*fees.Settings, error)
}

// Config holds checkout redirect targets.
type Config struct {
	SuccessURL string `env:"CHECKOUT_SUCCESS_URL,required"`
	CancelURL  string `env:"CHECKOUT_CANCEL_URL,required"`
}

// Service ties the fee policy, the settlement split, the provider, and the
// reconciler together behind the operations the HTTP layer exposes.
type Service struct {
	config     Config
	provider   billing.Provider
	store      Store
	plans      PlanSource
	customers  CustomerSource
	settings   SettingsSource
	reconciler *Reconciler
	deduper    idempotency.Deduper
	log        *slog.Logger
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithDeduper enables webhook delivery deduplication by provider event ID.
// Without it every redelivery is re-applied, which the reconciler tolerates.
func WithDeduper(d idempotency.Deduper) ServiceOption {
	return func(s *Service) { s.deduper = d }
}

// NewService creates a Service. Panics on nil required dependencies to
// fail fast during initialization.
func NewService(cfg Config, provider billing.Provider, store Store, plans PlanSource, customers CustomerSource, settings SettingsSource, log *slog.Logger, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("subscription: billing.Provider is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if plans == nil {
		panic("subscription: PlanSource is required")
	}
	if customers == nil {
		panic("subscription: CustomerSource is required")
	}
	if settings == nil {
		panic("subscription: SettingsSource is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		config:     cfg,
		provider:   provider,
		store:      store,
		plans:      plans,
		customers:  customers,
		settings:   settings,
		reconciler: NewReconciler(store, log),
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCheckout builds a hosted checkout session for a subscriber buying
// a plan. The fee rate is resolved from the plan owner's verification flag
// against settings fetched fresh for this request; the computed application
// fee and the correlation metadata ride on the provider session.
//
// The only local mutation is the lazily-created customer reference, which
// EnsureCustomer keeps idempotent — a failed or timed-out provider call
// leaves no partial subscription state behind.
func (s *Service) CreateCheckout(ctx context.Context, subscriberID, planID uuid.UUID) (*billing.CheckoutSession, error) {
	plan, err := s.plans.CheckoutPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.PayoutAccount == "" {
		return nil, ErrPayoutNotConfigured
	}

	settings, err := s.settings.FeeSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee settings: %w", err)
	}
	rate := fees.ResolveRate(plan.CapperVerified, settings)
	split := fees.ComputeSplit(plan.PriceCents, rate)

	customerID, err := s.customers.EnsureCustomer(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment customer: %w", err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		PriceCents:          plan.PriceCents,
		Currency:            "usd",
		Interval:            plan.Interval,
		ProductName:         fmt.Sprintf("%s · %s", plan.CapperName, plan.Name),
		CustomerID:          customerID,
		DestinationAccount:  plan.PayoutAccount,
		ApplicationFeeCents: split.ApplicationFee,
		SuccessURL:          s.config.SuccessURL,
		CancelURL:           s.config.CancelURL,
		Metadata: billing.Metadata{
			SubscriberID: subscriberID.String(),
			CapperID:     plan.CapperID.String(),
			PlanID:       plan.ID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		"plan_id", plan.ID, "capper_id", plan.CapperID,
		"fee_bps", rate, "application_fee_cents", split.ApplicationFee)
	return session, nil
}

// HandleWebhook verifies and applies one provider notification. Signature
// failures surface as errors before any state is touched; authentic events
// of any type reconcile to a nil return so the provider gets its receipt.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	// Delivery dedup is best-effort: a marker store failure degrades to a
	// redundant but idempotent re-apply.
	if s.deduper != nil && event.EventID != "" {
		first, err := s.deduper.FirstSeen(ctx, event.EventID)
		if err != nil {
			s.log.WarnContext(ctx, "delivery dedup unavailable, reprocessing",
				"event_id", event.EventID, "error", err)
		} else if !first {
			s.log.DebugContext(ctx, "acknowledging redelivered event",
				"event_id", event.EventID)
			return nil
		}
	}
	return s.reconciler.Apply(ctx, event)
}

// HasActiveSubscription reports whether the subscriber currently has an
// active subscription to the capper. Evaluated fresh on every call since
// subscription state changes asynchronously via webhooks.
func (s *Service) HasActiveSubscription(ctx context.Context, subscriberID, capperID uuid.UUID) (bool, error) {
	_, err := s.store.FindActive(ctx, subscriberID, capperID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
