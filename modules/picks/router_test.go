package picks_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	picksmod "github.com/capperstack/capperstack/modules/picks"
	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/email"
	"github.com/capperstack/capperstack/pkg/identity"
	pickscore "github.com/capperstack/capperstack/pkg/picks"
	"github.com/capperstack/capperstack/pkg/subscription"
	"github.com/capperstack/capperstack/svc/marketplace"
)

type activeSubChecker struct {
	store subscription.Store
}

func (c activeSubChecker) HasActiveSubscription(ctx context.Context, subscriberID, capperID uuid.UUID) (bool, error) {
	_, err := c.store.FindActive(ctx, subscriberID, capperID)
	if err != nil {
		if err == subscription.ErrSubscriptionNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type browseFixture struct {
	router   http.Handler
	service  *marketplace.Service
	subStore subscription.Store
	issuer   *identity.TokenIssuer
}

func newBrowseFixture(t *testing.T) *browseFixture {
	t.Helper()

	issuer, err := identity.NewTokenIssuer(identity.TokenConfig{Secret: "browse-test-secret"})
	require.NoError(t, err)

	provider := newStubProvider()
	service := marketplace.NewService(
		marketplace.NewMemoryStore(),
		pickscore.NewMemoryStore(),
		provider,
		email.NoopSender{},
		issuer,
		nil,
	)

	subStore := subscription.NewMemoryStore()
	gate := pickscore.NewGate(activeSubChecker{store: subStore})
	module := picksmod.NewModule(service, gate, identity.NewMiddleware(issuer))

	return &browseFixture{
		router:   module.Router(),
		service:  service,
		subStore: subStore,
		issuer:   issuer,
	}
}

type pickPayload struct {
	ID       string `json:"id"`
	Line     string `json:"line"`
	Analysis string `json:"analysis"`
	Locked   bool   `json:"locked"`
}

func (f *browseFixture) getPicks(t *testing.T, capperID uuid.UUID, token string) []pickPayload {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/"+capperID.String()+"/picks", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []pickPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestBrowsePicks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newBrowseFixture(t)

	capper, err := f.service.Register(ctx, marketplace.RegisterParams{
		Email: "capper@example.com", Password: "correct-horse", Role: identity.RoleCapper,
		DisplayName: "Sharp Eddie",
	})
	require.NoError(t, err)

	_, err = f.service.PublishPick(ctx, capper.User.ID, marketplace.PublishPickParams{
		Event: "Lakers @ Celtics", Line: "Lakers -4.5", Sport: "NBA", Confidence: 4,
		Analysis: "Boston is on a back-to-back and thin at the wing.",
	})
	require.NoError(t, err)

	bettor, err := f.service.Register(ctx, marketplace.RegisterParams{
		Email: "bettor@example.com", Password: "correct-horse", Role: identity.RoleBettor,
	})
	require.NoError(t, err)

	t.Run("anonymous viewer gets the locked feed", func(t *testing.T) {
		list := f.getPicks(t, capper.User.ID, "")
		require.Len(t, list, 1)
		assert.True(t, list[0].Locked)
		assert.Equal(t, pickscore.LockedAnalysisPlaceholder, list[0].Analysis)
		assert.Equal(t, "Lakers -4.5", list[0].Line, "teaser fields stay public")
	})

	t.Run("non-subscribed bettor gets the locked feed", func(t *testing.T) {
		list := f.getPicks(t, capper.User.ID, bettor.Token)
		require.Len(t, list, 1)
		assert.True(t, list[0].Locked)
	})

	t.Run("active subscriber sees full analysis", func(t *testing.T) {
		_, err := f.subStore.UpsertByExternalID(ctx, subscription.UpsertParams{
			ExternalID:   "sub_browse",
			SubscriberID: bettor.User.ID,
			CapperID:     capper.User.ID,
			Active:       true,
		})
		require.NoError(t, err)

		list := f.getPicks(t, capper.User.ID, bettor.Token)
		require.Len(t, list, 1)
		assert.False(t, list[0].Locked)
		assert.Contains(t, list[0].Analysis, "back-to-back")
	})

	t.Run("capper sees their own analysis", func(t *testing.T) {
		list := f.getPicks(t, capper.User.ID, capper.Token)
		require.Len(t, list, 1)
		assert.False(t, list[0].Locked)
	})

	t.Run("unknown capper is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/"+uuid.NewString()+"/picks", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("capper directory lists the profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Sharp Eddie")
	})
}

// stubProvider satisfies billing.Provider for wiring; browse tests never
// reach the payment processor.
type stubProvider struct{}

func newStubProvider() stubProvider { return stubProvider{} }

func (stubProvider) CreateCheckoutSession(context.Context, billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	return nil, billing.ErrProviderRequestFailed
}

func (stubProvider) CreateCustomer(context.Context, billing.CustomerRequest) (string, error) {
	return "", billing.ErrProviderRequestFailed
}

func (stubProvider) ParseWebhook(context.Context, []byte, string) (*billing.Event, error) {
	return nil, billing.ErrSignatureInvalid
}
