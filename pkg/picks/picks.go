// Package picks holds the published pick entity and the access gate that
// decides, per viewer, whether the paid analysis is visible or redacted.
package picks

import (
	"time"

	"github.com/google/uuid"
)

// LockedAnalysisPlaceholder replaces the analysis text for viewers without
// an active subscription to the pick's capper.
const LockedAnalysisPlaceholder = "Subscribe to unlock full analysis"

// Pick is one published betting pick. Analysis is the paid portion; every
// other field is public teaser content.
type Pick struct {
	ID         uuid.UUID
	CapperID   uuid.UUID
	Event      string // matchup or event description
	Line       string // the bet itself, e.g. "Lakers -4.5"
	Sport      string
	Confidence int32 // 1..5 stars
	Analysis   string
	CreatedAt  time.Time
}

// Redacted reports whether the pick's analysis has been replaced by the
// placeholder.
func (p Pick) Redacted() bool {
	return p.Analysis == LockedAnalysisPlaceholder
}

// RedactLocked returns a copy of picks with every Analysis replaced by the
// placeholder. Order and all other fields are preserved; the input slice is
// never mutated.
func RedactLocked(in []Pick) []Pick {
	out := make([]Pick, len(in))
	for i, p := range in {
		p.Analysis = LockedAnalysisPlaceholder
		out[i] = p
	}
	return out
}
