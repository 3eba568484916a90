// Package marketplace implements the subscription marketplace connecting
// cappers who publish picks with bettors who pay for access: accounts,
// capper profiles, pricing plans, verification workflow, and platform fee
// settings.
package marketplace

import (
	"time"

	"github.com/google/uuid"

	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/identity"
)

// User is an account holder. Payment-provider references are filled in
// lazily: BillingCustomerID on first checkout, PayoutAccountID when a
// capper completes payout onboarding.
type User struct {
	ID                uuid.UUID
	Email             string
	PasswordHash      string
	Name              string
	Role              identity.Role
	BillingCustomerID *string
	PayoutAccountID   *string
	CreatedAt         time.Time
}

// Capper is the publisher profile of a user with the capper role. It
// shares its primary key with the owning user, so the user ID is the
// capper ID everywhere subscriptions and picks reference one.
type Capper struct {
	UserID      uuid.UUID
	DisplayName string
	Bio         string
	Verified    bool
	CreatedAt   time.Time
}

// Plan is a recurring price point a capper offers.
type Plan struct {
	ID         uuid.UUID
	CapperID   uuid.UUID
	Name       string
	PriceCents int64
	Interval   billing.Interval
	CreatedAt  time.Time
}

// VerificationStatus is the state of a capper's verification request.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
)

// VerificationRequest is a capper's application for the verified badge.
// One row per capper; re-applying resets an existing row to pending.
type VerificationRequest struct {
	ID        uuid.UUID
	CapperID  uuid.UUID
	Status    VerificationStatus
	Note      string // applicant's supporting note, e.g. track record links
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlatformSettings is the admin-tunable fee policy. A single row holds
// both rates in basis points; the built-in defaults apply only while no
// row has been written.
type PlatformSettings struct {
	VerifiedFeeBps   int32
	UnverifiedFeeBps int32
	UpdatedAt        time.Time
}
