package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
	"gopkg.in/gomail.v2"

	"github.com/renovahub/renewal-api/internal/model"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type resendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, fromName, fromEmail string) Sender {
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromEmail),
	}
}

func (s *resendSender) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend delivery failed: %w", err)
	}
	return nil
}

type smtpSender struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, user, password string, secure bool, fromName, fromEmail string) Sender {
	dialer := gomail.NewDialer(host, port, user, password)
	dialer.SSL = secure
	return &smtpSender{
		dialer:    dialer,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.fromEmail, s.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}

// SenderFor builds the sender matching the persisted settings, or nil when
// email delivery is switched off or unconfigured.
func SenderFor(settings *model.EmailSettings) Sender {
	if settings == nil || !settings.Enabled {
		return nil
	}
	switch settings.Provider {
	case model.EmailProviderResend:
		if settings.ResendAPIKey == "" {
			return nil
		}
		return NewResendSender(settings.ResendAPIKey, settings.FromName, settings.FromEmail)
	case model.EmailProviderSMTP:
		if settings.SMTPHost == "" {
			return nil
		}
		return NewSMTPSender(settings.SMTPHost, settings.SMTPPort, settings.SMTPUser,
			settings.SMTPPassword, settings.SMTPSecure, settings.FromName, settings.FromEmail)
	}
	return nil
}
