package subscription

import "errors"

var (
	ErrPlanNotFound         = errors.New("subscription: plan not found")
	ErrPayoutNotConfigured  = errors.New("subscription: capper has not completed payouts setup")
	ErrSubscriptionNotFound = errors.New("subscription: subscription not found")
	ErrMissingExternalID    = errors.New("subscription: external subscription ID is required")
)
