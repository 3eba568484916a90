// Package picks exposes the public browse surface: capper directory, plan
// listings, and gated pick feeds.
package picks

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/capperstack/capperstack/core"
	"github.com/capperstack/capperstack/pkg/identity"
	pickscore "github.com/capperstack/capperstack/pkg/picks"
	"github.com/capperstack/capperstack/svc/marketplace"
)

// Module handles the public read endpoints.
type Module struct {
	service *marketplace.Service
	gate    *pickscore.Gate
	auth    *identity.Middleware
}

// NewModule creates the public picks module.
func NewModule(service *marketplace.Service, gate *pickscore.Gate, auth *identity.Middleware) *Module {
	if service == nil {
		panic("picks: marketplace.Service is required")
	}
	if gate == nil {
		panic("picks: pick gate is required")
	}
	if auth == nil {
		panic("picks: identity.Middleware is required")
	}
	return &Module{service: service, gate: gate, auth: auth}
}

// Router returns the module's routes, mounted by the caller under /cappers.
// Auth is optional throughout: anonymous viewers get the redacted feed.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(m.auth.Optional)
	r.Get("/", m.handleListCappers)
	r.Get("/{capperID}/plans", m.handleListPlans)
	r.Get("/{capperID}/picks", m.handleListPicks)
	return r
}

type capperResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	Verified    bool   `json:"verified"`
}

func (m *Module) handleListCappers(w http.ResponseWriter, r *http.Request) {
	cappers, err := m.service.ListCappers(r.Context())
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	out := make([]capperResponse, 0, len(cappers))
	for _, capper := range cappers {
		out = append(out, capperResponse{
			ID:          capper.UserID.String(),
			DisplayName: capper.DisplayName,
			Bio:         capper.Bio,
			Verified:    capper.Verified,
		})
	}
	core.Render(w, r, core.JSON(out))
}

type planResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Interval   string `json:"interval"`
}

func (m *Module) handleListPlans(w http.ResponseWriter, r *http.Request) {
	capperID, err := uuid.Parse(chi.URLParam(r, "capperID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if _, err := m.service.GetCapper(r.Context(), capperID); err != nil {
		if errors.Is(err, marketplace.ErrCapperNotFound) {
			core.Render(w, r, core.JSONError(core.ErrNotFound))
			return
		}
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	plans, err := m.service.ListPlans(r.Context(), capperID)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	out := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, planResponse{
			ID:         plan.ID.String(),
			Name:       plan.Name,
			PriceCents: plan.PriceCents,
			Interval:   string(plan.Interval),
		})
	}
	core.Render(w, r, core.JSON(out))
}

type pickResponse struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	Line       string    `json:"line"`
	Sport      string    `json:"sport,omitempty"`
	Confidence int32     `json:"confidence"`
	Analysis   string    `json:"analysis"`
	Locked     bool      `json:"locked"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *Module) handleListPicks(w http.ResponseWriter, r *http.Request) {
	capperID, err := uuid.Parse(chi.URLParam(r, "capperID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}
	if _, err := m.service.GetCapper(r.Context(), capperID); err != nil {
		if errors.Is(err, marketplace.ErrCapperNotFound) {
			core.Render(w, r, core.JSONError(core.ErrNotFound))
			return
		}
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	list, err := m.service.ListPicksByCapper(r.Context(), capperID)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	var viewer *identity.Principal
	if p, ok := identity.GetPrincipalFromContext(r.Context()); ok {
		viewer = &p
	}
	visible, err := m.gate.View(r.Context(), viewer, capperID, list)
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	out := make([]pickResponse, 0, len(visible))
	for _, pick := range visible {
		out = append(out, pickResponse{
			ID:         pick.ID.String(),
			Event:      pick.Event,
			Line:       pick.Line,
			Sport:      pick.Sport,
			Confidence: pick.Confidence,
			Analysis:   pick.Analysis,
			Locked:     pick.Redacted(),
			CreatedAt:  pick.CreatedAt,
		})
	}
	core.Render(w, r, core.JSON(out))
}
