package identity

import "errors"

var (
	ErrUnknownRole        = errors.New("identity: unknown role")
	ErrInvalidToken       = errors.New("identity: invalid token")
	ErrTokenExpired       = errors.New("identity: token expired")
	ErrMissingSecret      = errors.New("identity: signing secret is required")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
)
