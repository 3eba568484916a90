// Package email sends transactional notifications through Postmark, with a
// no-op sender for environments where delivery is disabled.
package email

import (
	"context"
	"regexp"
)

// EmailSender sends a single transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outbound email.
type SendEmailParams struct {
	SendTo   string
	Subject  string
	BodyHTML string
	Tag      string // optional, groups emails in delivery analytics
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks the params before any provider call is made.
func (p SendEmailParams) Validate() error {
	if !emailRegex.MatchString(p.SendTo) {
		return ErrInvalidRecipient
	}
	if p.Subject == "" {
		return ErrEmptySubject
	}
	if p.BodyHTML == "" {
		return ErrEmptyBody
	}
	return nil
}

// NoopSender discards emails. Used when no Postmark tokens are configured.
type NoopSender struct{}

func (NoopSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	return params.Validate()
}
