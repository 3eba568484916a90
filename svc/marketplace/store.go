package marketplace

import (
	"context"

	"github.com/google/uuid"
)

// Store persists marketplace state. Implementations must treat the user
// email as unique and keep one verification request row per capper.
type Store interface {
	// CreateUser inserts a user, returning ErrEmailTaken when the email
	// already exists.
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetBillingCustomerID persists the lazily-created payment customer
	// reference. Implementations must not overwrite an existing value so
	// concurrent first checkouts keep a single customer.
	SetBillingCustomerID(ctx context.Context, userID uuid.UUID, customerID string) (*User, error)
	SetPayoutAccountID(ctx context.Context, userID uuid.UUID, accountID string) (*User, error)

	CreateCapper(ctx context.Context, capper *Capper) error
	GetCapper(ctx context.Context, userID uuid.UUID) (*Capper, error)
	ListCappers(ctx context.Context) ([]Capper, error)
	SetCapperVerified(ctx context.Context, userID uuid.UUID, verified bool) error

	CreatePlan(ctx context.Context, plan *Plan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListPlansByCapper(ctx context.Context, capperID uuid.UUID) ([]Plan, error)

	// UpsertVerificationRequest inserts or resets the capper's request to
	// pending with the given note.
	UpsertVerificationRequest(ctx context.Context, capperID uuid.UUID, note string) (*VerificationRequest, error)
	GetVerificationRequest(ctx context.Context, capperID uuid.UUID) (*VerificationRequest, error)
	ListPendingVerificationRequests(ctx context.Context) ([]VerificationRequest, error)
	SetVerificationStatus(ctx context.Context, capperID uuid.UUID, status VerificationStatus) error

	// GetSettings returns the fee settings row, or (nil, nil) when none
	// has been written yet.
	GetSettings(ctx context.Context) (*PlatformSettings, error)
	UpsertSettings(ctx context.Context, settings *PlatformSettings) error
}
