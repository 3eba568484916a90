// Package admin exposes platform administration: the verification queue
// and the fee settings.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/capperstack/capperstack/core"
	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/svc/marketplace"
)

// Module handles admin-role endpoints.
type Module struct {
	service *marketplace.Service
	auth    *identity.Middleware
}

// NewModule creates the admin module.
func NewModule(service *marketplace.Service, auth *identity.Middleware) *Module {
	if service == nil {
		panic("admin: marketplace.Service is required")
	}
	if auth == nil {
		panic("admin: identity.Middleware is required")
	}
	return &Module{service: service, auth: auth}
}

// Router returns the module's routes, mounted by the caller under /admin.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(m.auth.Required, m.auth.RequireRole(identity.RoleAdmin))
	r.Get("/verifications", m.handleListVerifications)
	r.Post("/verifications/{capperID}/approve", m.handleApproveVerification)
	r.Put("/settings/fees", m.handleUpdateFeeSettings)
	return r
}

type verificationResponse struct {
	ID       string `json:"id"`
	CapperID string `json:"capper_id"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}

func (m *Module) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	pending, err := m.service.ListPendingVerifications(r.Context())
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	out := make([]verificationResponse, 0, len(pending))
	for _, req := range pending {
		out = append(out, verificationResponse{
			ID:       req.ID.String(),
			CapperID: req.CapperID.String(),
			Status:   string(req.Status),
			Note:     req.Note,
		})
	}
	core.Render(w, r, core.JSON(out))
}

func (m *Module) handleApproveVerification(w http.ResponseWriter, r *http.Request) {
	capperID, err := uuid.Parse(chi.URLParam(r, "capperID"))
	if err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	if err := m.service.ApproveVerification(r.Context(), capperID); err != nil {
		switch {
		case errors.Is(err, marketplace.ErrCapperNotFound),
			errors.Is(err, marketplace.ErrVerificationNotFound):
			core.Render(w, r, core.JSONError(core.ErrNotFound))
		default:
			core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		}
		return
	}

	core.Render(w, r, core.JSON(map[string]bool{"approved": true}))
}

type feeSettingsRequest struct {
	VerifiedPercent   float64 `json:"verified_percent"`
	UnverifiedPercent float64 `json:"unverified_percent"`
}

type feeSettingsResponse struct {
	VerifiedFeeBps   int32 `json:"verified_fee_bps"`
	UnverifiedFeeBps int32 `json:"unverified_fee_bps"`
}

func (m *Module) handleUpdateFeeSettings(w http.ResponseWriter, r *http.Request) {
	var req feeSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	settings, err := m.service.UpdateFeeSettings(r.Context(), req.VerifiedPercent, req.UnverifiedPercent)
	if err != nil {
		if errors.Is(err, marketplace.ErrSettingsUpdateRejected) {
			verr := core.NewValidationError()
			verr.Add("fees", "percentages must be between 0 and 100")
			core.Render(w, r, core.JSONError(verr))
			return
		}
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	core.Render(w, r, core.JSON(feeSettingsResponse{
		VerifiedFeeBps:   settings.VerifiedFeeBps,
		UnverifiedFeeBps: settings.UnverifiedFeeBps,
	}))
}
