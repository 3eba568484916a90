package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig holds session token settings.
type TokenConfig struct {
	Secret string        `env:"AUTH_TOKEN_SECRET,required"`
	TTL    time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	Issuer string        `env:"AUTH_TOKEN_ISSUER" envDefault:"capperstack"`
}

// TokenIssuer mints and parses signed session tokens carrying a Principal.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// sessionClaims are the JWT claims carried by a session token.
type sessionClaims struct {
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

// NewTokenIssuer creates a TokenIssuer from config. The signing secret is
// mandatory; an unsigned session token is worse than none.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		issuer: cfg.Issuer,
	}, nil
}

// Issue signs a session token for the given principal.
func (t *TokenIssuer) Issue(p Principal) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Role:     string(p.Role),
		Verified: p.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and reconstructs the principal.
func (t *TokenIssuer) Parse(raw string) (Principal, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, errors.Join(ErrTokenExpired, err)
		}
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}

	return Principal{ID: id, Role: role, Verified: claims.Verified}, nil
}
