package license

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	"github.com/renovahub/renewal-api/pkg/errors"
)

// Date layouts accepted by the bulk importer, tried in order. Spreadsheets
// exported from different tools disagree on this.
var importDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	time.RFC3339,
}

type LicenseServicer interface {
	CreateLicense(ctx context.Context, license *model.License) error
	GetLicense(ctx context.Context, id uuid.UUID) (*model.License, error)
	UpdateLicense(ctx context.Context, license *model.License) error
	DeleteLicense(ctx context.Context, id uuid.UUID) error
	ListLicenses(ctx context.Context, filter *model.LicenseFilter) ([]*model.License, error)
	RenewLicense(ctx context.Context, id uuid.UUID) (*model.License, error)
	ImportLicenses(ctx context.Context, rows []model.LicenseImportRow) (*model.ImportResult, error)
	Summary(ctx context.Context) (*model.LicenseSummary, error)
}

type Service struct {
	repo     repository.LicenseRepository
	validate *validator.Validate
}

func NewService(repo repository.LicenseRepository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *Service) CreateLicense(ctx context.Context, license *model.License) error {
	if license.SoftwareName == "" {
		return errors.BadRequest("software name is required", nil)
	}
	if license.RenewalDate.IsZero() {
		return errors.BadRequest("renewal date is required", nil)
	}
	if license.ResponsibleEmail == "" {
		return errors.BadRequest("responsible email is required", nil)
	}
	license.ResponsibleEmail = strings.ToLower(strings.TrimSpace(license.ResponsibleEmail))

	if err := s.repo.Create(ctx, license); err != nil {
		return fmt.Errorf("failed to create license: %w", err)
	}
	return nil
}

func (s *Service) GetLicense(ctx context.Context, id uuid.UUID) (*model.License, error) {
	license, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return nil, errors.NotFound("license", err)
		}
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	return license, nil
}

func (s *Service) UpdateLicense(ctx context.Context, license *model.License) error {
	if license.SoftwareName == "" {
		return errors.BadRequest("software name is required", nil)
	}
	license.ResponsibleEmail = strings.ToLower(strings.TrimSpace(license.ResponsibleEmail))

	if err := s.repo.Update(ctx, license); err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return errors.NotFound("license", err)
		}
		return fmt.Errorf("failed to update license: %w", err)
	}
	return nil
}

func (s *Service) DeleteLicense(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return errors.NotFound("license", err)
		}
		return fmt.Errorf("failed to delete license: %w", err)
	}
	return nil
}

func (s *Service) ListLicenses(ctx context.Context, filter *model.LicenseFilter) ([]*model.License, error) {
	licenses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	return licenses, nil
}

// RenewLicense pushes the renewal date one year past today and reactivates
// the license. The new date is anchored to today, not to the old renewal
// date: a license renewed late should not stay in arrears.
func (s *Service) RenewLicense(ctx context.Context, id uuid.UUID) (*model.License, error) {
	license, err := s.GetLicense(ctx, id)
	if err != nil {
		return nil, err
	}

	license.RenewalDate = time.Now().AddDate(1, 0, 0)
	license.Status = model.LicenseStatusActive

	if err := s.repo.Update(ctx, license); err != nil {
		return nil, fmt.Errorf("failed to renew license: %w", err)
	}
	return license, nil
}

// ImportLicenses validates and inserts rows one at a time. A bad row is
// reported in the result and the batch moves on.
func (s *Service) ImportLicenses(ctx context.Context, rows []model.LicenseImportRow) (*model.ImportResult, error) {
	result := &model.ImportResult{}

	for i, row := range rows {
		license, err := s.rowToLicense(&row)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if err := s.repo.Create(ctx, license); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

func (s *Service) rowToLicense(row *model.LicenseImportRow) (*model.License, error) {
	if err := s.validate.Struct(row); err != nil {
		return nil, err
	}

	renewalDate, err := parseImportDate(row.RenewalDate)
	if err != nil {
		return nil, err
	}

	status := row.Status
	if status == "" {
		status = model.LicenseStatusActive
	}

	return &model.License{
		SoftwareName:     strings.TrimSpace(row.SoftwareName),
		RenewalDate:      renewalDate,
		Amount:           row.Amount,
		Currency:         row.Currency,
		ResponsibleEmail: strings.ToLower(strings.TrimSpace(row.ResponsibleEmail)),
		RenewalURL:       row.RenewalURL,
		Status:           status,
		SourceSheet:      row.SourceSheet,
	}, nil
}

func parseImportDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable renewal date %q", value)
}

// Summary buckets every license by urgency for the dashboard.
func (s *Service) Summary(ctx context.Context) (*model.LicenseSummary, error) {
	licenses, err := s.repo.List(ctx, &model.LicenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}

	summary := &model.LicenseSummary{Total: len(licenses)}
	today := time.Now()
	for _, l := range licenses {
		switch renewal.Classify(l.RenewalDate, today) {
		case renewal.UrgencyExpired:
			summary.Expired++
		case renewal.UrgencyRed:
			summary.Red++
		case renewal.UrgencyYellow:
			summary.Yellow++
		default:
			summary.Green++
		}
	}
	return summary, nil
}
