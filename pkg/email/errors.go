package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid email config")
	ErrInvalidRecipient  = errors.New("invalid recipient email address")
	ErrEmptySubject      = errors.New("email subject is required")
	ErrEmptyBody         = errors.New("email body is required")
)
