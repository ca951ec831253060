package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/renovahub/renewal-api/internal/model"
)

// All repository interfaces in one file
type (
	LicenseRepository interface {
		Create(ctx context.Context, license *model.License) error
		Get(ctx context.Context, id uuid.UUID) (*model.License, error)
		Update(ctx context.Context, license *model.License) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.LicenseFilter) ([]*model.License, error)
		// ListDue returns active licenses with renewal_date <= before,
		// oldest first, capped at limit. This is the sweep's storage-side
		// pre-filter.
		ListDue(ctx context.Context, before time.Time, limit int) ([]*model.License, error)
		CountActive(ctx context.Context) (int, error)
		CountDueWithin(ctx context.Context, before time.Time) (int, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdateRole(ctx context.Context, id, roleID uuid.UUID) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.User, error)
		AddFCMToken(ctx context.Context, id uuid.UUID, token string) error
		RemoveFCMTokens(ctx context.Context, id uuid.UUID, tokens []string) error
	}

	RoleRepository interface {
		GetByName(ctx context.Context, name string) (*model.Role, error)
		List(ctx context.Context) ([]*model.Role, error)
	}

	IntegrationRepository interface {
		List(ctx context.Context) ([]*model.Integration, error)
		ListEnabled(ctx context.Context) ([]*model.Integration, error)
		Get(ctx context.Context, integType string) (*model.Integration, error)
		Upsert(ctx context.Context, integration *model.Integration) error
	}

	EmailSettingsRepository interface {
		Get(ctx context.Context) (*model.EmailSettings, error)
		Save(ctx context.Context, settings *model.EmailSettings) error
	}

	NotificationLogRepository interface {
		Create(ctx context.Context, entry *model.NotificationLog) error
		List(ctx context.Context, limit int) ([]*model.NotificationLog, error)
	}
)
