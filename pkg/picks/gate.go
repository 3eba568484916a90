package picks

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/capperstack/capperstack/pkg/identity"
)

// SubscriptionChecker answers whether a subscriber has active paid access
// to a capper's content.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, subscriberID, capperID uuid.UUID) (bool, error)
}

// Gate applies the access policy to pick listings: the capper viewing
// their own feed and active subscribers see full analysis, everyone else
// gets the redacted form. Access is checked per capper, never cached.
type Gate struct {
	subs SubscriptionChecker
}

// NewGate creates a Gate. Panics on a nil checker to fail fast during
// initialization.
func NewGate(subs SubscriptionChecker) *Gate {
	if subs == nil {
		panic("picks: SubscriptionChecker is required")
	}
	return &Gate{subs: subs}
}

// View returns the picks as the viewer is entitled to see them. A nil
// viewer is an anonymous request and always sees redacted analysis.
func (g *Gate) View(ctx context.Context, viewer *identity.Principal, capperID uuid.UUID, list []Pick) ([]Pick, error) {
	if viewer == nil {
		return RedactLocked(list), nil
	}
	if viewer.ID == capperID {
		return list, nil
	}

	active, err := g.subs.HasActiveSubscription(ctx, viewer.ID, capperID)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription access: %w", err)
	}
	if !active {
		return RedactLocked(list), nil
	}
	return list, nil
}
