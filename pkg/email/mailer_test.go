package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capperstack/capperstack/pkg/email"
)

func TestSendEmailParamsValidate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "capper@example.com",
		Subject:  "You are verified",
		BodyHTML: "<p>Congrats</p>",
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.SendTo = "not-an-address"
	assert.ErrorIs(t, bad.Validate(), email.ErrInvalidRecipient)

	bad = valid
	bad.Subject = ""
	assert.ErrorIs(t, bad.Validate(), email.ErrEmptySubject)

	bad = valid
	bad.BodyHTML = ""
	assert.ErrorIs(t, bad.Validate(), email.ErrEmptyBody)
}

func TestNewPostmarkClientConfig(t *testing.T) {
	t.Parallel()

	cfg := email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "noreply@capperstack.com",
		SupportEmail:         "support@capperstack.com",
	}

	_, err := email.NewPostmarkClient(cfg)
	assert.NoError(t, err)

	missing := cfg
	missing.PostmarkServerToken = ""
	_, err = email.NewPostmarkClient(missing)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	badSender := cfg
	badSender.SenderEmail = "nope"
	_, err = email.NewPostmarkClient(badSender)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestNoopSenderStillValidates(t *testing.T) {
	t.Parallel()

	sender := email.NoopSender{}
	assert.NoError(t, sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo: "capper@example.com", Subject: "hi", BodyHTML: "<p>hi</p>",
	}))
	assert.Error(t, sender.SendEmail(context.Background(), email.SendEmailParams{}))
}
