// Package identity defines the authenticated principal model: tagged roles,
// context plumbing, JWT session tokens, and password hashing.
package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is a tagged variant of the account type. Authorization checks switch
// exhaustively over it so a newly added role cannot silently pass a guard.
type Role string

const (
	RoleBettor Role = "bettor"
	RoleCapper Role = "capper"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a role string coming from untrusted input.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBettor, RoleCapper, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleBettor, RoleCapper, RoleAdmin:
		return true
	default:
		return false
	}
}

// Principal is the authenticated caller as seen by the core. Verified only
// carries meaning for cappers, where it selects the platform fee tier.
type Principal struct {
	ID       uuid.UUID
	Role     Role
	Verified bool
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// IsCapper reports whether the principal holds the capper role.
func (p Principal) IsCapper() bool { return p.Role == RoleCapper }
