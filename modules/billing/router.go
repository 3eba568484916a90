// Package billing exposes checkout creation and the payment provider's
// webhook endpoint.
package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/capperstack/capperstack/core"
	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/pkg/subscription"
)

// maxWebhookBody bounds webhook payload reads. Provider events are a few
// KB; anything near the limit is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// Module handles checkout and webhook endpoints.
type Module struct {
	subs *subscription.Service
	auth *identity.Middleware
	log  *slog.Logger
}

// NewModule creates the billing module.
func NewModule(subs *subscription.Service, auth *identity.Middleware, log *slog.Logger) *Module {
	if subs == nil {
		panic("billing: subscription.Service is required")
	}
	if auth == nil {
		panic("billing: identity.Middleware is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Module{subs: subs, auth: auth, log: log}
}

// Router returns the module's routes, mounted by the caller under /billing.
// The webhook route is unauthenticated; its authenticity check is the
// payload signature, not a session.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.With(m.auth.Required).Post("/checkout", m.handleCheckout)
	r.Post("/webhooks/stripe", m.handleWebhook)
	return r
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

type checkoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

func (m *Module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.GetPrincipalFromContext(r.Context())
	if !ok {
		core.Render(w, r, core.JSONError(core.ErrUnauthorized))
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		verr := core.NewValidationError()
		verr.Add("plan_id", "must be a valid plan id")
		core.Render(w, r, core.JSONError(verr))
		return
	}

	session, err := m.subs.CreateCheckout(r.Context(), principal.ID, planID)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrPlanNotFound):
			core.Render(w, r, core.JSONError(core.ErrNotFound))
		case errors.Is(err, subscription.ErrPayoutNotConfigured):
			core.Render(w, r, core.JSONError(core.ErrPreconditionFailed))
		default:
			m.log.ErrorContext(r.Context(), "checkout failed", "plan_id", planID, "error", err)
			core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		}
		return
	}

	core.Render(w, r, core.JSON(checkoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}))
}

// handleWebhook acknowledges every authentic delivery with 200 so the
// provider stops retrying. Only two failures are surfaced: a bad signature
// (400, not our event) and a store failure (500, retry wanted).
func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	err = m.subs.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if isSignatureError(err) {
			m.log.WarnContext(r.Context(), "rejected webhook with bad signature", "error", err)
			core.Render(w, r, core.JSONError(core.ErrBadRequest))
			return
		}
		m.log.ErrorContext(r.Context(), "webhook processing failed", "error", err)
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	core.Render(w, r, core.JSON(map[string]bool{"received": true}))
}

func isSignatureError(err error) bool {
	return errors.Is(err, billing.ErrSignatureInvalid) ||
		errors.Is(err, billing.ErrSignatureHeaderMalformed) ||
		errors.Is(err, billing.ErrSignatureExpired) ||
		errors.Is(err, billing.ErrMalformedPayload)
}
