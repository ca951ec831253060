package model

import "time"

const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
)

// EmailSettings is the single persisted email delivery configuration.
// Secrets are masked before leaving the API and a masked value written back
// means "keep what is stored".
type EmailSettings struct {
	Enabled      bool      `db:"enabled" json:"enabled"`
	Provider     string    `db:"provider" json:"provider"`
	ResendAPIKey string    `db:"resend_api_key" json:"resend_api_key,omitempty"`
	SMTPHost     string    `db:"smtp_host" json:"smtp_host,omitempty"`
	SMTPPort     int       `db:"smtp_port" json:"smtp_port,omitempty"`
	SMTPSecure   bool      `db:"smtp_secure" json:"smtp_secure,omitempty"`
	SMTPUser     string    `db:"smtp_user" json:"smtp_user,omitempty"`
	SMTPPassword string    `db:"smtp_password" json:"smtp_password,omitempty"`
	FromName     string    `db:"from_name" json:"from_name"`
	FromEmail    string    `db:"from_email" json:"from_email"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
