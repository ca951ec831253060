package emailcfg

import (
	"context"
	"fmt"

	"github.com/renovahub/renewal-api/internal/email"
	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/pkg/errors"
)

// maskedSecret is what the API shows instead of stored credentials. A
// client that writes it back unchanged keeps the stored value.
const maskedSecret = "••••••••"

type EmailConfigServicer interface {
	Get(ctx context.Context) (*model.EmailSettings, error)
	Save(ctx context.Context, incoming *model.EmailSettings) (*model.EmailSettings, error)
	SendTest(ctx context.Context, to string) error
}

type Service struct {
	repo repository.EmailSettingsRepository
}

func NewService(repo repository.EmailSettingsRepository) *Service {
	return &Service{repo: repo}
}

// Get returns the settings with secrets masked.
func (s *Service) Get(ctx context.Context) (*model.EmailSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	mask(settings)
	return settings, nil
}

// Save persists incoming settings, keeping stored secrets wherever the
// client sent the mask back. The response is masked again.
func (s *Service) Save(ctx context.Context, incoming *model.EmailSettings) (*model.EmailSettings, error) {
	if incoming.Provider != model.EmailProviderResend && incoming.Provider != model.EmailProviderSMTP {
		return nil, errors.BadRequest(fmt.Sprintf("unknown email provider %q", incoming.Provider), nil)
	}

	stored, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if incoming.ResendAPIKey == maskedSecret {
		incoming.ResendAPIKey = stored.ResendAPIKey
	}
	if incoming.SMTPPassword == maskedSecret {
		incoming.SMTPPassword = stored.SMTPPassword
	}

	if err := s.repo.Save(ctx, incoming); err != nil {
		return nil, err
	}

	saved := *incoming
	mask(&saved)
	return &saved, nil
}

// SendTest delivers a probe email with the currently stored settings.
func (s *Service) SendTest(ctx context.Context, to string) error {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}

	sender := email.SenderFor(settings)
	if sender == nil {
		return errors.BadRequest("email delivery is not configured", nil)
	}

	body := "<p>This is a test message from RenovaHub. Email delivery is working.</p>"
	if err := sender.Send(ctx, to, "RenovaHub test email", body); err != nil {
		return fmt.Errorf("test delivery failed: %w", err)
	}
	return nil
}

func mask(settings *model.EmailSettings) {
	if settings.ResendAPIKey != "" {
		settings.ResendAPIKey = maskedSecret
	}
	if settings.SMTPPassword != "" {
		settings.SMTPPassword = maskedSecret
	}
}
