package identity

import (
	"net/http"
	"strings"

	"github.com/capperstack/capperstack/core"
)

// Middleware authenticates requests from a bearer token and exposes the
// principal through the request context.
type Middleware struct {
	issuer *TokenIssuer
}

// NewMiddleware creates auth middleware around a token issuer.
func NewMiddleware(issuer *TokenIssuer) *Middleware {
	return &Middleware{issuer: issuer}
}

// Optional attaches the principal to the context when a valid bearer token
// is present, and passes the request through anonymously otherwise. Used by
// read endpoints that serve both subscribers and the public.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := m.principalFromRequest(r); ok {
			r = r.WithContext(SetPrincipalToContext(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects unauthenticated requests with 401 before any business
// logic runs.
func (m *Middleware) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := m.principalFromRequest(r)
		if !ok {
			core.Render(w, r, core.JSONError(core.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r.WithContext(SetPrincipalToContext(r.Context(), p)))
	})
}

// RequireRole guards a subtree for a single role. The switch over the
// principal's role is exhaustive: every known role is matched explicitly
// and anything else is rejected.
func (m *Middleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipalFromContext(r.Context())
			if !ok {
				core.Render(w, r, core.JSONError(core.ErrUnauthorized))
				return
			}
			switch p.Role {
			case RoleBettor, RoleCapper, RoleAdmin:
				if p.Role != role {
					core.Render(w, r, core.JSONError(core.ErrForbidden))
					return
				}
			default:
				core.Render(w, r, core.JSONError(core.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) principalFromRequest(r *http.Request) (Principal, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return Principal{}, false
	}
	p, err := m.issuer.Parse(raw)
	if err != nil {
		return Principal{}, false
	}
	return p, true
}
