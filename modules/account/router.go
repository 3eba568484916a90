// Package account exposes registration and login over HTTP.
package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capperstack/capperstack/core"
	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/svc/marketplace"
)

// Module handles account endpoints.
type Module struct {
	service *marketplace.Service
}

// NewModule creates the account module.
func NewModule(service *marketplace.Service) *Module {
	if service == nil {
		panic("account: marketplace.Service is required")
	}
	return &Module{service: service}
}

// Router returns the module's routes, mounted by the caller under /account.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", m.handleRegister)
	r.Post("/login", m.handleLogin)
	return r
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

type authResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

func (m *Module) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	role, err := identity.ParseRole(req.Role)
	if err != nil {
		verr := core.NewValidationError()
		verr.Add("role", "must be bettor or capper")
		core.Render(w, r, core.JSONError(verr))
		return
	}

	result, err := m.service.Register(r.Context(), marketplace.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Role:        role,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		core.Render(w, r, core.JSONError(registerError(err)))
		return
	}

	core.Render(w, r, core.JSONStatus(http.StatusCreated, authResponse{
		UserID: result.User.ID.String(),
		Role:   string(result.User.Role),
		Token:  result.Token,
	}))
}

func registerError(err error) error {
	verr := core.NewValidationError()
	switch {
	case errors.Is(err, marketplace.ErrEmailTaken):
		return core.ErrConflict
	case errors.Is(err, marketplace.ErrInvalidEmail):
		verr.Add("email", "must be a valid email address")
		return verr
	case errors.Is(err, marketplace.ErrWeakPassword):
		verr.Add("password", "must be at least 8 characters")
		return verr
	case errors.Is(err, marketplace.ErrEmptyDisplayName):
		verr.Add("display_name", "is required for cappers")
		return verr
	case errors.Is(err, identity.ErrUnknownRole):
		verr.Add("role", "must be bettor or capper")
		return verr
	default:
		return core.ErrInternalServerError
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	result, err := m.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			core.Render(w, r, core.JSONError(core.ErrUnauthorized))
			return
		}
		core.Render(w, r, core.JSONError(core.ErrInternalServerError))
		return
	}

	core.Render(w, r, core.JSON(authResponse{
		UserID: result.User.ID.String(),
		Role:   string(result.User.Role),
		Token:  result.Token,
	}))
}
