package emailcfg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/pkg/errors"
)

type fakeRepo struct {
	stored model.EmailSettings
}

func (f *fakeRepo) Get(ctx context.Context) (*model.EmailSettings, error) {
	copied := f.stored
	return &copied, nil
}

func (f *fakeRepo) Save(ctx context.Context, s *model.EmailSettings) error {
	f.stored = *s
	return nil
}

func TestGetMasksSecrets(t *testing.T) {
	repo := &fakeRepo{stored: model.EmailSettings{
		Enabled:      true,
		Provider:     model.EmailProviderResend,
		ResendAPIKey: "re_secret_key",
		SMTPPassword: "hunter2",
		FromEmail:    "alerts@corp.com",
	}}
	svc := NewService(repo)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, maskedSecret, settings.ResendAPIKey)
	assert.Equal(t, maskedSecret, settings.SMTPPassword)
	assert.Equal(t, "alerts@corp.com", settings.FromEmail)
}

func TestGetLeavesEmptySecretsEmpty(t *testing.T) {
	repo := &fakeRepo{stored: model.EmailSettings{Provider: model.EmailProviderSMTP}}
	svc := NewService(repo)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Empty(t, settings.ResendAPIKey)
	assert.Empty(t, settings.SMTPPassword)
}

func TestSavePreservesMaskedSecrets(t *testing.T) {
	repo := &fakeRepo{stored: model.EmailSettings{
		Provider:     model.EmailProviderSMTP,
		SMTPPassword: "original-password",
		ResendAPIKey: "original-key",
	}}
	svc := NewService(repo)

	_, err := svc.Save(context.Background(), &model.EmailSettings{
		Enabled:      true,
		Provider:     model.EmailProviderSMTP,
		SMTPHost:     "smtp.corp.com",
		SMTPPassword: maskedSecret,
		ResendAPIKey: maskedSecret,
	})
	require.NoError(t, err)

	assert.Equal(t, "original-password", repo.stored.SMTPPassword)
	assert.Equal(t, "original-key", repo.stored.ResendAPIKey)
	assert.Equal(t, "smtp.corp.com", repo.stored.SMTPHost)
}

func TestSaveOverwritesWithNewSecret(t *testing.T) {
	repo := &fakeRepo{stored: model.EmailSettings{
		Provider:     model.EmailProviderSMTP,
		SMTPPassword: "old",
	}}
	svc := NewService(repo)

	saved, err := svc.Save(context.Background(), &model.EmailSettings{
		Provider:     model.EmailProviderSMTP,
		SMTPPassword: "brand-new",
	})
	require.NoError(t, err)

	assert.Equal(t, "brand-new", repo.stored.SMTPPassword)
	// the response is masked again
	assert.Equal(t, maskedSecret, saved.SMTPPassword)
}

func TestSaveRejectsUnknownProvider(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.Save(context.Background(), &model.EmailSettings{Provider: "carrier-pigeon"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrBadRequest, appErr.Code)
}

func TestSendTestUnconfigured(t *testing.T) {
	svc := NewService(&fakeRepo{stored: model.EmailSettings{Enabled: false}})

	err := svc.SendTest(context.Background(), "someone@corp.com")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrBadRequest, appErr.Code)
}
