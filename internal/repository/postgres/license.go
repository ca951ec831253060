package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
)

var ErrNotFound = errors.New("not found")

type licenseRepository struct {
	db *sqlx.DB
}

func NewLicenseRepository(db *sqlx.DB) repository.LicenseRepository {
	return &licenseRepository{db: db}
}

func (r *licenseRepository) Create(ctx context.Context, license *model.License) error {
	query := `
		INSERT INTO licenses (
			id, software_name, renewal_date, amount, currency,
			responsible_email, renewal_url, status, source_sheet,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`
	license.ID = uuid.New()
	license.CreatedAt = time.Now()
	license.UpdatedAt = time.Now()
	if license.Status == "" {
		license.Status = model.LicenseStatusActive
	}
	if license.Currency == "" {
		license.Currency = "USD"
	}

	_, err := r.db.ExecContext(ctx, query,
		license.ID,
		license.SoftwareName,
		license.RenewalDate,
		license.Amount,
		license.Currency,
		license.ResponsibleEmail,
		license.RenewalURL,
		license.Status,
		license.SourceSheet,
		license.CreatedAt,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create license: %w", err)
	}
	return nil
}

func (r *licenseRepository) Get(ctx context.Context, id uuid.UUID) (*model.License, error) {
	query := `
		SELECT
			id, software_name, renewal_date, amount, currency,
			responsible_email, renewal_url, status, source_sheet,
			created_at, updated_at
		FROM licenses
		WHERE id = $1
	`
	var license model.License
	err := r.db.GetContext(ctx, &license, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	return &license, nil
}

func (r *licenseRepository) Update(ctx context.Context, license *model.License) error {
	query := `
		UPDATE licenses
		SET software_name = $1, renewal_date = $2, amount = $3,
			currency = $4, responsible_email = $5, renewal_url = $6,
			status = $7, updated_at = $8
		WHERE id = $9
	`
	license.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		license.SoftwareName,
		license.RenewalDate,
		license.Amount,
		license.Currency,
		license.ResponsibleEmail,
		license.RenewalURL,
		license.Status,
		license.UpdatedAt,
		license.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *licenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *licenseRepository) List(ctx context.Context, filter *model.LicenseFilter) ([]*model.License, error) {
	if filter == nil {
		filter = &model.LicenseFilter{}
	}
	query := `
		SELECT
			id, software_name, renewal_date, amount, currency,
			responsible_email, renewal_url, status, source_sheet,
			created_at, updated_at
		FROM licenses
		WHERE (COALESCE($1, '') = '' OR status = $1)
		AND (COALESCE($2, '') = '' OR software_name ILIKE '%' || $2 || '%' OR responsible_email ILIKE '%' || $2 || '%')
		AND (COALESCE($3, '') = '' OR source_sheet = $3)
		ORDER BY renewal_date ASC
	`
	var licenses []*model.License
	err := r.db.SelectContext(ctx, &licenses, query, filter.Status, filter.Search, filter.SourceSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	return licenses, nil
}

func (r *licenseRepository) ListDue(ctx context.Context, before time.Time, limit int) ([]*model.License, error) {
	query := `
		SELECT
			id, software_name, renewal_date, amount, currency,
			responsible_email, renewal_url, status, source_sheet,
			created_at, updated_at
		FROM licenses
		WHERE status = $1 AND renewal_date <= $2
		ORDER BY renewal_date ASC
		LIMIT $3
	`
	var licenses []*model.License
	err := r.db.SelectContext(ctx, &licenses, query, model.LicenseStatusActive, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due licenses: %w", err)
	}
	return licenses, nil
}

func (r *licenseRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM licenses WHERE status = $1`, model.LicenseStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to count active licenses: %w", err)
	}
	return count, nil
}

func (r *licenseRepository) CountDueWithin(ctx context.Context, before time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM licenses WHERE status = $1 AND renewal_date <= $2`,
		model.LicenseStatusActive, before)
	if err != nil {
		return 0, fmt.Errorf("failed to count due licenses: %w", err)
	}
	return count, nil
}
