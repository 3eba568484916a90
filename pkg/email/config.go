package email

// Config holds outbound email configuration. Tokens are optional so that
// development environments can run with sending disabled; SenderEmail and
// SupportEmail establish the sender identity and reply-to behavior.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
}
