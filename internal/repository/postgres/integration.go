package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
)

type integrationRepository struct {
	db *sqlx.DB
}

func NewIntegrationRepository(db *sqlx.DB) repository.IntegrationRepository {
	return &integrationRepository{db: db}
}

type integrationRow struct {
	model.Integration
	ConfigJSON []byte `db:"config"`
}

func (row *integrationRow) toModel() (*model.Integration, error) {
	integ := row.Integration
	if len(row.ConfigJSON) > 0 {
		if err := json.Unmarshal(row.ConfigJSON, &integ.Config); err != nil {
			return nil, fmt.Errorf("failed to decode integration config: %w", err)
		}
	}
	return &integ, nil
}

func (r *integrationRepository) List(ctx context.Context) ([]*model.Integration, error) {
	return r.list(ctx, `SELECT id, type, name, enabled, config, created_at, updated_at FROM integrations ORDER BY type`)
}

func (r *integrationRepository) ListEnabled(ctx context.Context) ([]*model.Integration, error) {
	return r.list(ctx, `SELECT id, type, name, enabled, config, created_at, updated_at FROM integrations WHERE enabled = true ORDER BY type`)
}

func (r *integrationRepository) list(ctx context.Context, query string) ([]*model.Integration, error) {
	var rows []*integrationRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}

	integrations := make([]*model.Integration, 0, len(rows))
	for _, row := range rows {
		integ, err := row.toModel()
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, integ)
	}
	return integrations, nil
}

func (r *integrationRepository) Get(ctx context.Context, integType string) (*model.Integration, error) {
	var row integrationRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, type, name, enabled, config, created_at, updated_at FROM integrations WHERE type = $1`,
		integType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return row.toModel()
}

func (r *integrationRepository) Upsert(ctx context.Context, integ *model.Integration) error {
	configJSON, err := json.Marshal(integ.Config)
	if err != nil {
		return fmt.Errorf("failed to encode integration config: %w", err)
	}

	if integ.ID == uuid.Nil {
		integ.ID = uuid.New()
	}
	now := time.Now()
	integ.UpdatedAt = now
	if integ.CreatedAt.IsZero() {
		integ.CreatedAt = now
	}

	query := `
		INSERT INTO integrations (id, type, name, enabled, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type) DO UPDATE
		SET name = EXCLUDED.name, enabled = EXCLUDED.enabled,
			config = EXCLUDED.config, updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		integ.ID, integ.Type, integ.Name, integ.Enabled, configJSON,
		integ.CreatedAt, integ.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}
	return nil
}
