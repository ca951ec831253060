package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
)

type emailSettingsRepository struct {
	db *sqlx.DB
}

func NewEmailSettingsRepository(db *sqlx.DB) repository.EmailSettingsRepository {
	return &emailSettingsRepository{db: db}
}

// Get returns disabled defaults when nothing has been saved yet.
func (r *emailSettingsRepository) Get(ctx context.Context) (*model.EmailSettings, error) {
	query := `
		SELECT enabled, provider, resend_api_key, smtp_host, smtp_port,
			smtp_secure, smtp_user, smtp_password, from_name, from_email, updated_at
		FROM email_settings WHERE id = 1
	`
	var settings model.EmailSettings
	err := r.db.GetContext(ctx, &settings, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.EmailSettings{Provider: model.EmailProviderSMTP}, nil
		}
		return nil, fmt.Errorf("failed to get email settings: %w", err)
	}
	return &settings, nil
}

func (r *emailSettingsRepository) Save(ctx context.Context, settings *model.EmailSettings) error {
	settings.UpdatedAt = time.Now()
	query := `
		INSERT INTO email_settings (
			id, enabled, provider, resend_api_key, smtp_host, smtp_port,
			smtp_secure, smtp_user, smtp_password, from_name, from_email, updated_at
		) VALUES (
			1, :enabled, :provider, :resend_api_key, :smtp_host, :smtp_port,
			:smtp_secure, :smtp_user, :smtp_password, :from_name, :from_email, :updated_at
		)
		ON CONFLICT (id) DO UPDATE
		SET enabled = EXCLUDED.enabled, provider = EXCLUDED.provider,
			resend_api_key = EXCLUDED.resend_api_key, smtp_host = EXCLUDED.smtp_host,
			smtp_port = EXCLUDED.smtp_port, smtp_secure = EXCLUDED.smtp_secure,
			smtp_user = EXCLUDED.smtp_user, smtp_password = EXCLUDED.smtp_password,
			from_name = EXCLUDED.from_name, from_email = EXCLUDED.from_email,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("failed to save email settings: %w", err)
	}
	return nil
}
