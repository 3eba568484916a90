package picks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/pkg/picks"
)

type stubChecker struct {
	activeFor map[uuid.UUID]bool // keyed by capper ID
	err       error
	calls     int
}

func (s *stubChecker) HasActiveSubscription(_ context.Context, _, capperID uuid.UUID) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.activeFor[capperID], nil
}

func samplePicks(capperID uuid.UUID) []picks.Pick {
	return []picks.Pick{
		{ID: uuid.New(), CapperID: capperID, Event: "Lakers @ Celtics", Line: "Lakers -4.5", Sport: "NBA", Confidence: 4, Analysis: "Boston's rotation is thin on the second night of a back-to-back."},
		{ID: uuid.New(), CapperID: capperID, Event: "Jets @ Bills", Line: "Under 41.5", Sport: "NFL", Confidence: 3, Analysis: "Wind forecast kills the deep passing game for both sides."},
	}
}

func TestGateView(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	capperID := uuid.New()

	t.Run("anonymous viewer sees redacted analysis", func(t *testing.T) {
		t.Parallel()

		checker := &stubChecker{}
		gate := picks.NewGate(checker)
		in := samplePicks(capperID)

		out, err := gate.View(ctx, nil, capperID, in)
		require.NoError(t, err)
		require.Len(t, out, 2)
		for i, p := range out {
			assert.Equal(t, picks.LockedAnalysisPlaceholder, p.Analysis)
			assert.Equal(t, in[i].ID, p.ID, "order and identity must be preserved")
			assert.Equal(t, in[i].Line, p.Line, "teaser fields stay visible")
		}
		assert.Zero(t, checker.calls, "no subscription lookup for anonymous viewers")
		assert.NotEqual(t, picks.LockedAnalysisPlaceholder, in[0].Analysis, "input must not be mutated")
	})

	t.Run("active subscriber sees full analysis", func(t *testing.T) {
		t.Parallel()

		checker := &stubChecker{activeFor: map[uuid.UUID]bool{capperID: true}}
		gate := picks.NewGate(checker)
		viewer := &identity.Principal{ID: uuid.New(), Role: identity.RoleBettor}

		out, err := gate.View(ctx, viewer, capperID, samplePicks(capperID))
		require.NoError(t, err)
		for _, p := range out {
			assert.False(t, p.Redacted())
		}
	})

	t.Run("subscription to one capper grants nothing for another", func(t *testing.T) {
		t.Parallel()

		otherCapper := uuid.New()
		checker := &stubChecker{activeFor: map[uuid.UUID]bool{capperID: true}}
		gate := picks.NewGate(checker)
		viewer := &identity.Principal{ID: uuid.New(), Role: identity.RoleBettor}

		out, err := gate.View(ctx, viewer, otherCapper, samplePicks(otherCapper))
		require.NoError(t, err)
		for _, p := range out {
			assert.True(t, p.Redacted())
		}
	})

	t.Run("capper always sees their own analysis", func(t *testing.T) {
		t.Parallel()

		checker := &stubChecker{}
		gate := picks.NewGate(checker)
		viewer := &identity.Principal{ID: capperID, Role: identity.RoleCapper}

		out, err := gate.View(ctx, viewer, capperID, samplePicks(capperID))
		require.NoError(t, err)
		for _, p := range out {
			assert.False(t, p.Redacted())
		}
		assert.Zero(t, checker.calls)
	})

	t.Run("checker failure propagates", func(t *testing.T) {
		t.Parallel()

		checker := &stubChecker{err: errors.New("store down")}
		gate := picks.NewGate(checker)
		viewer := &identity.Principal{ID: uuid.New(), Role: identity.RoleBettor}

		_, err := gate.View(ctx, viewer, capperID, samplePicks(capperID))
		assert.Error(t, err)
	})
}

func TestRedactLocked(t *testing.T) {
	t.Parallel()

	assert.Empty(t, picks.RedactLocked(nil))

	in := samplePicks(uuid.New())
	out := picks.RedactLocked(in)
	require.Len(t, out, len(in))
	for i := range out {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].Confidence, out[i].Confidence)
		assert.Equal(t, picks.LockedAnalysisPlaceholder, out[i].Analysis)
	}
}
