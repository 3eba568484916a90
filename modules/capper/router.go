// Package capper exposes the publisher-side endpoints: plans, picks, and
// the verification request.
package capper

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capperstack/capperstack/core"
	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/pkg/picks"
	"github.com/capperstack/capperstack/svc/marketplace"
)

// Module handles capper-role endpoints.
type Module struct {
	service *marketplace.Service
	auth    *identity.Middleware
}

// NewModule creates the capper module.
func NewModule(service *marketplace.Service, auth *identity.Middleware) *Module {
	if service == nil {
		panic("capper: marketplace.Service is required")
	}
	if auth == nil {
		panic("capper: identity.Middleware is required")
	}
	return &Module{service: service, auth: auth}
}

// Router returns the module's routes, mounted by the caller under /capper.
// Every route requires an authenticated capper.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(m.auth.Required, m.auth.RequireRole(identity.RoleCapper))
	r.Post("/plans", m.handleCreatePlan)
	r.Get("/plans", m.handleListPlans)
	r.Post("/picks", m.handlePublishPick)
	r.Post("/verification", m.handleRequestVerification)
	r.Put("/payout-account", m.handleSetPayoutAccount)
	return r
}

type planRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Interval   string `json:"interval"`
}

type planResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Interval   string `json:"interval"`
}

func toPlanResponse(plan *marketplace.Plan) planResponse {
	return planResponse{
		ID:         plan.ID.String(),
		Name:       plan.Name,
		PriceCents: plan.PriceCents,
		Interval:   string(plan.Interval),
	}
}

func (m *Module) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.GetPrincipalFromContext(r.Context())

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	plan, err := m.service.CreatePlan(r.Context(), principal.ID, marketplace.CreatePlanParams{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Interval:   req.Interval,
	})
	if err != nil {
		core.Render(w, r, core.JSONError(planError(err)))
		return
	}

	core.Render(w, r, core.JSONStatus(http.StatusCreated, toPlanResponse(plan)))
}

func planError(err error) error {
	verr := core.NewValidationError()
	switch {
	case errors.Is(err, marketplace.ErrEmptyPlanName):
		verr.Add("name", "is required")
		return verr
	case errors.Is(err, marketplace.ErrInvalidPlanPrice):
		verr.Add("price_cents", "must be at least 100")
		return verr
	case errors.Is(err, marketplace.ErrInvalidPlanInterval):
		verr.Add("interval", "must be day, week or month")
		return verr
	case errors.Is(err, marketplace.ErrCapperNotFound):
		return core.ErrNotFound
	default:
		return core.ErrInternalServerError
	}
}

func (m *Module) handleListPlans(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.GetPrincipalFromContext(r.Context())

	plans, err := m.service.ListPlans(r.Context(), principal.ID)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	out := make([]planResponse, 0, len(plans))
	for i := range plans {
		out = append(out, toPlanResponse(&plans[i]))
	}
	core.Render(w, r, core.JSON(out))
}

type pickRequest struct {
	Event      string `json:"event"`
	Line       string `json:"line"`
	Sport      string `json:"sport"`
	Confidence int32  `json:"confidence"`
	Analysis   string `json:"analysis"`
}

func (m *Module) handlePublishPick(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.GetPrincipalFromContext(r.Context())

	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	pick, err := m.service.PublishPick(r.Context(), principal.ID, marketplace.PublishPickParams{
		Event:      req.Event,
		Line:       req.Line,
		Sport:      req.Sport,
		Confidence: req.Confidence,
		Analysis:   req.Analysis,
	})
	if err != nil {
		core.Render(w, r, core.JSONError(pickError(err)))
		return
	}

	core.Render(w, r, core.JSONStatus(http.StatusCreated, map[string]string{"id": pick.ID.String()}))
}

func pickError(err error) error {
	verr := core.NewValidationError()
	switch {
	case errors.Is(err, picks.ErrEmptyEvent):
		verr.Add("event", "is required")
		return verr
	case errors.Is(err, picks.ErrEmptyLine):
		verr.Add("line", "is required")
		return verr
	case errors.Is(err, picks.ErrInvalidConfidence):
		verr.Add("confidence", "must be between 1 and 5")
		return verr
	case errors.Is(err, marketplace.ErrCapperNotFound):
		return core.ErrNotFound
	default:
		return core.ErrInternalServerError
	}
}

type verificationRequest struct {
	Note string `json:"note"`
}

func (m *Module) handleRequestVerification(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.GetPrincipalFromContext(r.Context())

	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	result, err := m.service.RequestVerification(r.Context(), principal.ID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, marketplace.ErrAlreadyVerified):
			core.Render(w, r, core.JSONError(core.ErrConflict))
		case errors.Is(err, marketplace.ErrCapperNotFound):
			core.Render(w, r, core.JSONError(core.ErrNotFound))
		default:
			core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		}
		return
	}

	core.Render(w, r, core.JSONStatus(http.StatusAccepted, map[string]string{
		"id":     result.ID.String(),
		"status": string(result.Status),
	}))
}

type payoutAccountRequest struct {
	AccountID string `json:"account_id"`
}

func (m *Module) handleSetPayoutAccount(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.GetPrincipalFromContext(r.Context())

	var req payoutAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if req.AccountID == "" {
		verr := core.NewValidationError()
		verr.Add("account_id", "is required")
		core.Render(w, r, core.JSONError(verr))
		return
	}

	if _, err := m.service.SetPayoutAccount(r.Context(), principal.ID, req.AccountID); err != nil {
		if errors.Is(err, marketplace.ErrCapperNotFound) {
			core.Render(w, r, core.JSONError(core.ErrNotFound))
			return
		}
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	core.Render(w, r, core.JSON(map[string]bool{"updated": true}))
}
