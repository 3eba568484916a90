package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/email"
	"github.com/capperstack/capperstack/pkg/fees"
	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/pkg/picks"
	"github.com/capperstack/capperstack/pkg/subscription"
)

// Service implements account, capper, plan, verification, and settings
// operations. It also implements the source interfaces the checkout flow
// depends on (subscription.PlanSource, CustomerSource, SettingsSource).
type Service struct {
	store    Store
	picks    picks.Store
	provider billing.Provider
	mailer   email.EmailSender
	issuer   *identity.TokenIssuer
	log      *slog.Logger
}

// NewService creates a Service. Panics on nil required dependencies to
// fail fast during initialization.
func NewService(store Store, pickStore picks.Store, provider billing.Provider, mailer email.EmailSender, issuer *identity.TokenIssuer, log *slog.Logger) *Service {
	if store == nil {
		panic("marketplace: Store is required")
	}
	if pickStore == nil {
		panic("marketplace: picks.Store is required")
	}
	if provider == nil {
		panic("marketplace: billing.Provider is required")
	}
	if issuer == nil {
		panic("marketplace: identity.TokenIssuer is required")
	}
	if mailer == nil {
		mailer = email.NoopSender{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		picks:    pickStore,
		provider: provider,
		mailer:   mailer,
		issuer:   issuer,
		log:      log,
	}
}

// RegisterParams describes a new account. DisplayName and Bio are only
// read when Role is capper.
type RegisterParams struct {
	Email       string
	Password    string
	Name        string
	Role        identity.Role
	DisplayName string
	Bio         string
}

// AuthResult is a signed-in account with its session token.
type AuthResult struct {
	User  *User
	Token string
}

// Register creates an account. Capper registrations also create the
// publisher profile under the same ID. Admin accounts are provisioned out
// of band, never through this path.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	addr := normalizeEmail(params.Email)
	if !strings.Contains(addr, "@") {
		return nil, ErrInvalidEmail
	}
	if len(params.Password) < 8 {
		return nil, ErrWeakPassword
	}

	var role identity.Role
	switch params.Role {
	case identity.RoleBettor, identity.RoleCapper:
		role = params.Role
	default:
		return nil, fmt.Errorf("%w: %q", identity.ErrUnknownRole, params.Role)
	}
	if role == identity.RoleCapper && strings.TrimSpace(params.DisplayName) == "" {
		return nil, ErrEmptyDisplayName
	}

	hash, err := identity.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        addr,
		PasswordHash: hash,
		Name:         params.Name,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if role == identity.RoleCapper {
		capper := &Capper{
			UserID:      user.ID,
			DisplayName: strings.TrimSpace(params.DisplayName),
			Bio:         params.Bio,
			CreatedAt:   user.CreatedAt,
		}
		if err := s.store.CreateCapper(ctx, capper); err != nil {
			return nil, err
		}
	}

	token, err := s.issuer.Issue(identity.Principal{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, userEmail, password string) (*AuthResult, error) {
	user, err := s.store.GetUserByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := identity.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	principal := identity.Principal{ID: user.ID, Role: user.Role}
	if user.Role == identity.RoleCapper {
		if capper, err := s.store.GetCapper(ctx, user.ID); err == nil {
			principal.Verified = capper.Verified
		}
	}

	token, err := s.issuer.Issue(principal)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// CreatePlanParams describes a new price point.
type CreatePlanParams struct {
	Name       string
	PriceCents int64
	Interval   string
}

// CreatePlan adds a price point to a capper's offering. The 100-cent floor
// keeps plans above the payment processor's minimum charge.
func (s *Service) CreatePlan(ctx context.Context, capperID uuid.UUID, params CreatePlanParams) (*Plan, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrEmptyPlanName
	}
	if params.PriceCents < 100 {
		return nil, ErrInvalidPlanPrice
	}
	interval, ok := billing.ParseInterval(params.Interval)
	if !ok {
		return nil, ErrInvalidPlanInterval
	}
	if _, err := s.store.GetCapper(ctx, capperID); err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:         uuid.New(),
		CapperID:   capperID,
		Name:       strings.TrimSpace(params.Name),
		PriceCents: params.PriceCents,
		Interval:   interval,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns a capper's plans oldest first.
func (s *Service) ListPlans(ctx context.Context, capperID uuid.UUID) ([]Plan, error) {
	return s.store.ListPlansByCapper(ctx, capperID)
}

// ListCappers returns all capper profiles.
func (s *Service) ListCappers(ctx context.Context) ([]Capper, error) {
	return s.store.ListCappers(ctx)
}

// GetCapper returns one capper profile.
func (s *Service) GetCapper(ctx context.Context, capperID uuid.UUID) (*Capper, error) {
	return s.store.GetCapper(ctx, capperID)
}

// PublishPickParams describes a new pick.
type PublishPickParams struct {
	Event      string
	Line       string
	Sport      string
	Confidence int32
	Analysis   string
}

// PublishPick stores a new pick under the capper's feed.
func (s *Service) PublishPick(ctx context.Context, capperID uuid.UUID, params PublishPickParams) (*picks.Pick, error) {
	if strings.TrimSpace(params.Event) == "" {
		return nil, picks.ErrEmptyEvent
	}
	if strings.TrimSpace(params.Line) == "" {
		return nil, picks.ErrEmptyLine
	}
	if params.Confidence < 1 || params.Confidence > 5 {
		return nil, picks.ErrInvalidConfidence
	}
	if _, err := s.store.GetCapper(ctx, capperID); err != nil {
		return nil, err
	}

	return s.picks.Create(ctx, picks.CreateParams{
		CapperID:   capperID,
		Event:      strings.TrimSpace(params.Event),
		Line:       strings.TrimSpace(params.Line),
		Sport:      params.Sport,
		Confidence: params.Confidence,
		Analysis:   params.Analysis,
	})
}

// ListPicksByCapper returns a capper's picks newest first, unredacted.
// Access policy is applied by the caller through the picks gate.
func (s *Service) ListPicksByCapper(ctx context.Context, capperID uuid.UUID) ([]picks.Pick, error) {
	return s.picks.ListByCapper(ctx, capperID)
}

// RequestVerification files or re-files the capper's verification request.
// Re-filing resets a previous decision back to pending.
func (s *Service) RequestVerification(ctx context.Context, capperID uuid.UUID, note string) (*VerificationRequest, error) {
	capper, err := s.store.GetCapper(ctx, capperID)
	if err != nil {
		return nil, err
	}
	if capper.Verified {
		return nil, ErrAlreadyVerified
	}
	return s.store.UpsertVerificationRequest(ctx, capperID, note)
}

// ListPendingVerifications returns open requests oldest first.
func (s *Service) ListPendingVerifications(ctx context.Context) ([]VerificationRequest, error) {
	return s.store.ListPendingVerificationRequests(ctx)
}

// ApproveVerification grants the verified badge: flips the capper's flag,
// closes the request, and notifies the capper by email. The notification
// is best-effort; a delivery failure never rolls back the approval.
func (s *Service) ApproveVerification(ctx context.Context, capperID uuid.UUID) error {
	capper, err := s.store.GetCapper(ctx, capperID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetVerificationRequest(ctx, capperID); err != nil {
		return err
	}

	if err := s.store.SetCapperVerified(ctx, capperID, true); err != nil {
		return err
	}
	if err := s.store.SetVerificationStatus(ctx, capperID, VerificationApproved); err != nil {
		return err
	}

	if user, err := s.store.GetUserByID(ctx, capperID); err == nil {
		sendErr := s.mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   user.Email,
			Subject:  "You are now a verified capper",
			BodyHTML: verificationApprovedBody(capper.DisplayName),
			Tag:      "verification-approved",
		})
		if sendErr != nil {
			s.log.WarnContext(ctx, "failed to send verification approval email",
				"capper_id", capperID, "error", sendErr)
		}
	}

	s.log.InfoContext(ctx, "capper verified", "capper_id", capperID)
	return nil
}

func verificationApprovedBody(displayName string) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification request has been approved. The verified badge is now live on your profile, and the reduced platform fee applies to all new subscriptions.</p>",
		displayName)
}

// UpdateFeeSettings sets the platform fee rates from admin-supplied
// percentages. Values are converted to basis points before persisting.
func (s *Service) UpdateFeeSettings(ctx context.Context, verifiedPercent, unverifiedPercent float64) (*PlatformSettings, error) {
	verifiedBps, err := fees.PercentToBps(verifiedPercent)
	if err != nil {
		return nil, errors.Join(ErrSettingsUpdateRejected, err)
	}
	unverifiedBps, err := fees.PercentToBps(unverifiedPercent)
	if err != nil {
		return nil, errors.Join(ErrSettingsUpdateRejected, err)
	}

	settings := &PlatformSettings{
		VerifiedFeeBps:   verifiedBps,
		UnverifiedFeeBps: unverifiedBps,
	}
	if err := s.store.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "fee settings updated",
		"verified_fee_bps", verifiedBps, "unverified_fee_bps", unverifiedBps)
	return settings, nil
}

// SetPayoutAccount records the capper's payout destination once onboarding
// with the payment provider completes.
func (s *Service) SetPayoutAccount(ctx context.Context, capperID uuid.UUID, accountID string) (*User, error) {
	if _, err := s.store.GetCapper(ctx, capperID); err != nil {
		return nil, err
	}
	return s.store.SetPayoutAccountID(ctx, capperID, accountID)
}

// CheckoutPlan implements subscription.PlanSource: the plan joined with
// its capper's payout and verification state.
func (s *Service) CheckoutPlan(ctx context.Context, planID uuid.UUID) (*subscription.CheckoutPlan, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, subscription.ErrPlanNotFound
		}
		return nil, err
	}
	capper, err := s.store.GetCapper(ctx, plan.CapperID)
	if err != nil {
		return nil, err
	}
	owner, err := s.store.GetUserByID(ctx, plan.CapperID)
	if err != nil {
		return nil, err
	}

	var payoutAccount string
	if owner.PayoutAccountID != nil {
		payoutAccount = *owner.PayoutAccountID
	}

	return &subscription.CheckoutPlan{
		ID:             plan.ID,
		Name:           plan.Name,
		PriceCents:     plan.PriceCents,
		Interval:       plan.Interval,
		CapperID:       capper.UserID,
		CapperName:     capper.DisplayName,
		CapperVerified: capper.Verified,
		PayoutAccount:  payoutAccount,
	}, nil
}

// EnsureCustomer implements subscription.CustomerSource. The provider
// customer is created on first checkout and the reference persisted; the
// store keeps the first written value, so a racing duplicate is discarded
// and the persisted reference is always returned.
func (s *Service) EnsureCustomer(ctx context.Context, subscriberID uuid.UUID) (string, error) {
	user, err := s.store.GetUserByID(ctx, subscriberID)
	if err != nil {
		return "", err
	}
	if user.BillingCustomerID != nil {
		return *user.BillingCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, billing.CustomerRequest{
		Email:        user.Email,
		Name:         user.Name,
		SubscriberID: user.ID.String(),
	})
	if err != nil {
		return "", err
	}

	updated, err := s.store.SetBillingCustomerID(ctx, subscriberID, customerID)
	if err != nil {
		return "", err
	}
	return *updated.BillingCustomerID, nil
}

// FeeSettings implements subscription.SettingsSource.
func (s *Service) FeeSettings(ctx context.Context) (*fees.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, nil
	}
	return &fees.Settings{
		VerifiedFeeBps:   settings.VerifiedFeeBps,
		UnverifiedFeeBps: settings.UnverifiedFeeBps,
	}, nil
}
