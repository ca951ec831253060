package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
)

type notificationLogRepository struct {
	db *sqlx.DB
}

func NewNotificationLogRepository(db *sqlx.DB) repository.NotificationLogRepository {
	return &notificationLogRepository{db: db}
}

func (r *notificationLogRepository) Create(ctx context.Context, log *model.NotificationLog) error {
	query := `
		INSERT INTO notification_log (
			id, license_id, tier, severity, recipient, title, body,
			success_count, failure_count, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	log.ID = uuid.New()
	log.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.LicenseID, log.Tier, log.Severity, log.Recipient,
		log.Title, log.Body, log.SuccessCount, log.FailureCount, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}
	return nil
}

func (r *notificationLogRepository) List(ctx context.Context, limit int) ([]*model.NotificationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, license_id, tier, severity, recipient, title, body,
			success_count, failure_count, created_at
		FROM notification_log ORDER BY created_at DESC LIMIT $1
	`
	var logs []*model.NotificationLog
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list notification log: %w", err)
	}
	return logs, nil
}
