package marketplace

import "errors"

var (
	ErrEmailTaken             = errors.New("email is already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrCapperNotFound         = errors.New("capper not found")
	ErrPlanNotFound           = errors.New("plan not found")
	ErrNotACapper             = errors.New("user does not have a capper profile")
	ErrInvalidPlanPrice       = errors.New("plan price must be at least 100 cents")
	ErrInvalidPlanInterval    = errors.New("plan interval must be day, week or month")
	ErrEmptyPlanName          = errors.New("plan name is required")
	ErrVerificationNotFound   = errors.New("verification request not found")
	ErrAlreadyVerified        = errors.New("capper is already verified")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrWeakPassword           = errors.New("password must be at least 8 characters")
	ErrEmptyDisplayName       = errors.New("capper display name is required")
	ErrSettingsUpdateRejected = errors.New("fee settings update rejected")
)
