package identity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capperstack/capperstack/pkg/identity"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	t.Run("accepts known roles", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"bettor", "capper", "admin"} {
			role, err := identity.ParseRole(s)
			require.NoError(t, err)
			assert.Equal(t, identity.Role(s), role)
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"", "BETTOR", "superuser", "moderator"} {
			_, err := identity.ParseRole(s)
			assert.ErrorIs(t, err, identity.ErrUnknownRole, "role %q", s)
		}
	})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer, err := identity.NewTokenIssuer(identity.TokenConfig{
		Secret: "test-secret",
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	principal := identity.Principal{
		ID:       uuid.New(),
		Role:     identity.RoleCapper,
		Verified: true,
	}

	token, err := issuer.Issue(principal)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, principal, parsed)
}

func TestTokenIssuer_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		_, err := identity.NewTokenIssuer(identity.TokenConfig{})
		assert.ErrorIs(t, err, identity.ErrMissingSecret)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		issuer, err := identity.NewTokenIssuer(identity.TokenConfig{Secret: "s", TTL: time.Hour})
		require.NoError(t, err)

		_, err = issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		a, err := identity.NewTokenIssuer(identity.TokenConfig{Secret: "secret-a", TTL: time.Hour})
		require.NoError(t, err)
		b, err := identity.NewTokenIssuer(identity.TokenConfig{Secret: "secret-b", TTL: time.Hour})
		require.NoError(t, err)

		token, err := a.Issue(identity.Principal{ID: uuid.New(), Role: identity.RoleBettor})
		require.NoError(t, err)

		_, err = b.Parse(token)
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		short, err := identity.NewTokenIssuer(identity.TokenConfig{Secret: "s", TTL: time.Millisecond})
		require.NoError(t, err)

		token, err := short.Issue(identity.Principal{ID: uuid.New(), Role: identity.RoleBettor})
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		_, err = short.Parse(token)
		assert.ErrorIs(t, err, identity.ErrTokenExpired)
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := identity.HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	assert.NoError(t, identity.VerifyPassword(hash, "hunter22"))
	assert.ErrorIs(t, identity.VerifyPassword(hash, "wrong"), identity.ErrInvalidCredentials)
}
